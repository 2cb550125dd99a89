package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &alertRepoPG{pool: pool}
}

func (r *alertRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const alertCols = `id, patient_id, alert_type, risk_grade, justification, generated_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.PatientID, &a.Type, &a.RiskGrade, &a.Justification, &a.GeneratedAt)
	return &a, err
}

func (r *alertRepoPG) Create(ctx context.Context, a *Alert) error {
	id, err := db.InsertWithID(db.AlertIDs, func(id int) (bool, error) {
		tag, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO alert (id, patient_id, alert_type, risk_grade, justification, generated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO NOTHING`,
			id, a.PatientID, a.Type, a.RiskGrade, a.Justification, a.GeneratedAt)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	})
	if db.IsUniqueViolation(err, "alert_patient_type_key") {
		return apperr.Conflict("patient %d already has a %q alert", a.PatientID, a.Type)
	}
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	a.ID = id
	return nil
}

func (r *alertRepoPG) GetByID(ctx context.Context, id int) (*Alert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx, `SELECT `+alertCols+` FROM alert WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("alert %d not found", id)
	}
	return a, err
}

func (r *alertRepoPG) FindByPatientAndType(ctx context.Context, patientID int, alertType string) (*Alert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx,
		`SELECT `+alertCols+` FROM alert WHERE patient_id = $1 AND lower(alert_type) = lower($2)`,
		patientID, alertType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient %d has no %q alert", patientID, alertType)
	}
	return a, err
}

func (r *alertRepoPG) Update(ctx context.Context, a *Alert) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE alert SET alert_type=$2, risk_grade=$3, justification=$4, generated_at=$5
		WHERE id = $1`,
		a.ID, a.Type, a.RiskGrade, a.Justification, a.GeneratedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("alert %d not found", a.ID)
	}
	return nil
}

func (r *alertRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM alert WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("alert %d not found", id)
	}
	return nil
}

func (r *alertRepoPG) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM alert`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *alertRepoPG) DeleteByPatient(ctx context.Context, patientID int) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM alert WHERE patient_id = $1`, patientID)
	return err
}

func (r *alertRepoPG) List(ctx context.Context) ([]*Alert, error) {
	return r.query(ctx, `SELECT `+alertCols+` FROM alert ORDER BY generated_at DESC, id`)
}

func (r *alertRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Alert, error) {
	return r.query(ctx, `SELECT `+alertCols+` FROM alert WHERE patient_id = $1 ORDER BY generated_at DESC, id`, patientID)
}

func (r *alertRepoPG) ListByType(ctx context.Context, alertType string) ([]*Alert, error) {
	return r.query(ctx, `SELECT `+alertCols+` FROM alert WHERE lower(alert_type) = lower($1) ORDER BY generated_at DESC, id`, alertType)
}

func (r *alertRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Alert, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
