//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartdent/smartdent/internal/catalog"
	"github.com/smartdent/smartdent/internal/domain/alert"
	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/internal/domain/riskanalysis"
	"github.com/smartdent/smartdent/internal/domain/summary"
	"github.com/smartdent/smartdent/internal/platform/db"
	"github.com/smartdent/smartdent/internal/platform/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// stack wires the Postgres repositories and services the way the server does.
type stack struct {
	patientRepo  patient.Repository
	patients     *patient.Service
	appointments *appointment.Service
	procedures   *procedure.Service
	alerts       *alert.Service
	summaries    *summary.Service
	risk         *riskanalysis.Service
	published    *recordingPublisher
}

func newStack(t *testing.T, classifierURL string) *stack {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	tx := db.NewTransactor(globalPool)
	patientRepo := patient.NewRepoPG(globalPool)
	apptRepo := appointment.NewRepoPG(globalPool)
	procRepo := procedure.NewRepoPG(globalPool)
	alertRepo := alert.NewRepoPG(globalPool)

	s := &stack{patientRepo: patientRepo, published: &recordingPublisher{}}
	s.patients = patient.NewService(patientRepo, cat, tx)
	s.appointments = appointment.NewService(apptRepo, patientRepo, procRepo, tx)
	s.procedures = procedure.NewService(procRepo, apptRepo, cat)
	s.alerts = alert.NewService(alertRepo, patientRepo)
	s.patients.AddDependents(s.appointments, s.alerts)
	s.summaries = summary.NewService(s.patients, s.appointments, procRepo)
	s.risk = riskanalysis.NewService(s.summaries, riskanalysis.NewClient(classifierURL, 5*time.Second),
		s.alerts, tx, s.published, zerolog.Nop())
	return s
}

func (s *stack) createPatient(t *testing.T, ctx context.Context, cpf, company, address string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{
		FullName:   "Larissa Oliveira Silva",
		CPF:        cpf,
		BirthDate:  "15031990",
		Email:      "larissa." + cpf + "@exemplo.com",
		Phone:      "11987654321",
		Address:    address,
		DentalPlan: "Bem-Estar",
		Company:    company,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

// futureSchedule returns a ddMMyyyyHHmm value days from now.
func futureSchedule(days int) string {
	t := time.Now().In(appointment.Location).AddDate(0, 0, days)
	return time.Date(t.Year(), t.Month(), t.Day(), 10, 30, 0, 0, appointment.Location).Format(appointment.ScheduleLayout)
}

// completedVisit books an appointment, marks it Completed and bills procType.
func (s *stack) completedVisit(t *testing.T, ctx context.Context, patientID, days int, procType string) *appointment.Appointment {
	t.Helper()
	a, err := s.appointments.Create(ctx, appointment.CreateRequest{PatientID: patientID, ScheduledAt: futureSchedule(days)})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	a, err = s.appointments.Update(ctx, a.ID, appointment.UpdateRequest{ScheduledAt: a.ScheduledAt, Status: "Realizada"})
	if err != nil {
		t.Fatalf("complete appointment: %v", err)
	}
	if procType != "" {
		if _, err := s.procedures.Create(ctx, procedure.Request{AppointmentID: a.ID, Type: procType}); err != nil {
			t.Fatalf("create procedure: %v", err)
		}
	}
	return a
}

func appointmentRequest(patientID, days int) appointment.CreateRequest {
	return appointment.CreateRequest{PatientID: patientID, ScheduledAt: futureSchedule(days)}
}
