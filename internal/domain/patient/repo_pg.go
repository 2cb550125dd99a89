package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, full_name, cpf, birth_date, email, phone, address, dental_plan, company,
	num_consultations, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.CPF, &p.BirthDate, &p.Email, &p.Phone, &p.Address,
		&p.DentalPlan, &p.Company, &p.NumConsultations, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	id, err := db.InsertWithID(db.RecordIDs, func(id int) (bool, error) {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patient (id, full_name, cpf, birth_date, email, phone, address, dental_plan, company, num_consultations)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO NOTHING
			RETURNING created_at, updated_at`,
			id, p.FullName, p.CPF, p.BirthDate, p.Email, p.Phone, p.Address, p.DentalPlan, p.Company, p.NumConsultations,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	})
	if db.IsUniqueViolation(err, "_cpf_key") {
		return apperr.Conflict("a patient with CPF %s already exists", p.CPF)
	}
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	p.ID = id
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient %d not found", id)
	}
	return p, err
}

func (r *patientRepoPG) GetByCPF(ctx context.Context, cpf string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE cpf = $1`, cpf))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no patient with CPF %s", cpf)
	}
	return p, err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET full_name=$2, email=$3, phone=$4, address=$5, dental_plan=$6, company=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FullName, p.Email, p.Phone, p.Address, p.DentalPlan, p.Company,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("patient %d not found", p.ID)
	}
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient %d not found", id)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY full_name, id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *patientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY full_name, id`)
}

func (r *patientRepoPG) ListByCompany(ctx context.Context, company string) ([]*Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patient WHERE company = $1 ORDER BY full_name, id`, company)
}

func (r *patientRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT DISTINCT company FROM patient WHERE company <> $1 AND company <> '' ORDER BY company`,
		IndividualCompany)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *patientRepoPG) AdjustConsultations(ctx context.Context, id int, delta int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET num_consultations = GREATEST(num_consultations + $2, 0), updated_at = NOW()
		WHERE id = $1`, id, delta)
	return err
}
