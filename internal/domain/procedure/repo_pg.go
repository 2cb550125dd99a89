package procedure

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

type procedureRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &procedureRepoPG{pool: pool}
}

func (r *procedureRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const procedureCols = `p.id, p.appointment_id, p.procedure_type, p.description, p.cost_cents, p.created_at, p.updated_at`

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.AppointmentID, &p.Type, &p.Description, &p.Cost, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	id, err := db.InsertWithID(db.RecordIDs, func(id int) (bool, error) {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO procedure (id, appointment_id, procedure_type, description, cost_cents)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (id) DO NOTHING
			RETURNING created_at, updated_at`,
			id, p.AppointmentID, p.Type, p.Description, int64(p.Cost),
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	})
	if db.IsUniqueViolation(err, "_appointment_key") {
		return apperr.InvalidConflict("appointment %d already has a procedure", p.AppointmentID)
	}
	if err != nil {
		return fmt.Errorf("insert procedure: %w", err)
	}
	p.ID = id
	return nil
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id int) (*Procedure, error) {
	p, err := scanProcedure(r.conn(ctx).QueryRow(ctx, `SELECT `+procedureCols+` FROM procedure p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("procedure %d not found", id)
	}
	return p, err
}

func (r *procedureRepoPG) GetByAppointment(ctx context.Context, appointmentID int) (*Procedure, error) {
	p, err := scanProcedure(r.conn(ctx).QueryRow(ctx,
		`SELECT `+procedureCols+` FROM procedure p WHERE p.appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment %d has no procedure", appointmentID)
	}
	return p, err
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE procedure SET procedure_type=$2, description=$3, cost_cents=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Type, p.Description, int64(p.Cost),
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("procedure %d not found", p.ID)
	}
	return err
}

func (r *procedureRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM procedure WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("procedure %d not found", id)
	}
	return nil
}

func (r *procedureRepoPG) DeleteByAppointment(ctx context.Context, appointmentID int) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM procedure WHERE appointment_id = $1`, appointmentID)
	return err
}

func (r *procedureRepoPG) List(ctx context.Context, limit, offset int) ([]*Procedure, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM procedure`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+procedureCols+` FROM procedure p ORDER BY p.created_at DESC, p.id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *procedureRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Procedure, error) {
	return r.query(ctx, `
		SELECT `+procedureCols+`
		FROM procedure p JOIN appointment a ON a.id = p.appointment_id
		WHERE a.patient_id = $1
		ORDER BY a.created_at, a.id`, patientID)
}

func (r *procedureRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Procedure, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
