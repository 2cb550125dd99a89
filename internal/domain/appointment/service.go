package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

// PatientStore is the part of the patient repository appointments need.
type PatientStore interface {
	GetByID(ctx context.Context, id int) (*patient.Patient, error)
	AdjustConsultations(ctx context.Context, id int, delta int) error
}

// ProcedureRemover deletes the procedure attached to an appointment, if any.
type ProcedureRemover interface {
	DeleteByAppointment(ctx context.Context, appointmentID int) error
}

type Service struct {
	appts      Repository
	patients   PatientStore
	procedures ProcedureRemover
	tx         db.Transactor
	now        func() time.Time
}

func NewService(appts Repository, patients PatientStore, procedures ProcedureRemover, tx db.Transactor) *Service {
	return &Service{appts: appts, patients: patients, procedures: procedures, tx: tx, now: time.Now}
}

type CreateRequest struct {
	PatientID   int    `json:"patient_id"`
	ScheduledAt string `json:"scheduled_at"`
}

type UpdateRequest struct {
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
}

func (s *Service) parseFuture(raw string) (time.Time, error) {
	t, err := ParseSchedule(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("%s", err.Error())
	}
	if t.Before(s.now()) {
		return time.Time{}, apperr.Validation("appointments cannot be scheduled in the past")
	}
	return t, nil
}

// Create books a Scheduled appointment and bumps the patient's visit counter.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.PatientID <= 0 {
		return nil, apperr.Validation("patient_id is required")
	}
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return nil, err
	}
	t, err := s.parseFuture(req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:     req.PatientID,
		ScheduledAt:   strings.TrimSpace(req.ScheduledAt),
		ScheduledTime: &t,
		Status:        StatusScheduled,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.appts.Create(ctx, a); err != nil {
			return err
		}
		return s.patients.AdjustConsultations(ctx, a.PatientID, 1)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.appts.ListByPatient(ctx, patientID)
}

// Update reschedules and/or changes the status. Any status may follow any
// other. The new time must not be in the past.
func (s *Service) Update(ctx context.Context, id int, req UpdateRequest) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.parseFuture(req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	st, err := ParseStatus(req.Status)
	if err != nil {
		return nil, apperr.Validation("status must be one of %s", strings.Join(Labels(), ", "))
	}

	a.ScheduledAt = strings.TrimSpace(req.ScheduledAt)
	a.ScheduledTime = &t
	a.Status = st
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the appointment and its procedure and decrements the
// patient's visit counter, never below zero.
func (s *Service) Delete(ctx context.Context, id int) error {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.procedures.DeleteByAppointment(ctx, id); err != nil {
			return fmt.Errorf("delete procedure of appointment %d: %w", id, err)
		}
		if err := s.appts.Delete(ctx, id); err != nil {
			return err
		}
		return s.patients.AdjustConsultations(ctx, a.PatientID, -1)
	})
}

// DeleteByPatient removes every appointment of a patient with their
// procedures. The counter is left alone since the patient is going away.
func (s *Service) DeleteByPatient(ctx context.Context, patientID int) error {
	appts, err := s.appts.ListByPatient(ctx, patientID)
	if err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, a := range appts {
			if err := s.procedures.DeleteByAppointment(ctx, a.ID); err != nil {
				return fmt.Errorf("delete procedure of appointment %d: %w", a.ID, err)
			}
		}
		return s.appts.DeleteByPatient(ctx, patientID)
	})
}
