package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentCols = `id, patient_id, scheduled_at, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var schedule, status string
	if err := row.Scan(&a.ID, &a.PatientID, &schedule, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	a.Status = st
	// Legacy rows may hold unparseable schedules; they display as InvalidDate.
	_ = a.SetSchedule(schedule)
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	id, err := db.InsertWithID(db.RecordIDs, func(id int) (bool, error) {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO appointment (id, patient_id, scheduled_at, status)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO NOTHING
			RETURNING created_at, updated_at`,
			id, a.PatientID, a.ScheduledAt, a.Status.String(),
		).Scan(&a.CreatedAt, &a.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	a.ID = id
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment %d not found", id)
	}
	return a, err
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET scheduled_at=$2, status=$3, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.ScheduledAt, a.Status.String(),
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("appointment %d not found", a.ID)
	}
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment %d not found", id)
	}
	return nil
}

func (r *appointmentRepoPG) DeleteByPatient(ctx context.Context, patientID int) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE patient_id = $1`, patientID)
	return err
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+appointmentCols+` FROM appointment ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentCols+` FROM appointment WHERE patient_id = $1 ORDER BY created_at, id`, patientID)
}

func (r *appointmentRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
