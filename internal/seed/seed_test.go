package seed

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartdent/smartdent/internal/catalog"
	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/internal/platform/apperr"
)

type memStore struct {
	nextID       int
	patients     map[int]*patient.Patient
	appointments []*appointment.Appointment
	procedures   []*procedure.Procedure
	conflicts    int
	failAppt     error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, patients: make(map[int]*patient.Patient)}
}

func (m *memStore) id() int {
	id := m.nextID
	m.nextID++
	return id
}

type patientWriter struct{ m *memStore }

func (w patientWriter) Create(_ context.Context, p *patient.Patient) error {
	if w.m.conflicts > 0 {
		w.m.conflicts--
		return apperr.Conflict("a patient with CPF %s already exists", p.CPF)
	}
	p.ID = w.m.id()
	w.m.patients[p.ID] = p
	return nil
}

func (m *memStore) AdjustConsultations(_ context.Context, id int, delta int) error {
	p, ok := m.patients[id]
	if !ok {
		return apperr.NotFound("patient %d not found", id)
	}
	p.NumConsultations += delta
	return nil
}

type apptWriter struct{ m *memStore }

func (w apptWriter) Create(_ context.Context, a *appointment.Appointment) error {
	if w.m.failAppt != nil {
		return w.m.failAppt
	}
	a.ID = w.m.id()
	w.m.appointments = append(w.m.appointments, a)
	return nil
}

type procWriter struct{ m *memStore }

func (w procWriter) Create(_ context.Context, p *procedure.Procedure) error {
	p.ID = w.m.id()
	w.m.procedures = append(w.m.procedures, p)
	return nil
}

func newSeeder(t *testing.T, m *memStore) (*Seeder, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	stores := Stores{
		Patients:     patientWriter{m},
		Counters:     m,
		Appointments: apptWriter{m},
		Procedures:   procWriter{m},
	}
	return New(stores, cat, zerolog.Nop()), cat
}

var seedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestRun_GeneratesConsistentHistory(t *testing.T) {
	m := newMemStore()
	s, cat := newSeeder(t, m)

	res, err := s.Run(context.Background(), Options{Patients: 25, Seed: 42, Now: seedNow})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Patients != 25 || len(m.patients) != 25 {
		t.Fatalf("expected 25 patients, got %+v", res)
	}
	if res.Appointments != len(m.appointments) || res.Procedures != len(m.procedures) {
		t.Fatalf("result %+v does not match stored rows", res)
	}

	perPatient := map[int]int{}
	apptIDs := map[int]bool{}
	for _, a := range m.appointments {
		perPatient[a.PatientID]++
		apptIDs[a.ID] = true
		if _, err := appointment.ParseSchedule(a.ScheduledAt); err != nil {
			t.Errorf("appointment %d has bad schedule: %v", a.ID, err)
		}
		if a.Status.String() == "" {
			t.Errorf("appointment %d has no status", a.ID)
		}
	}
	for id, p := range m.patients {
		if p.NumConsultations != perPatient[id] {
			t.Errorf("patient %d counter %d, want %d", id, p.NumConsultations, perPatient[id])
		}
		if !cat.IsPlanAllowed(p.DentalPlan) {
			t.Errorf("patient %d has unknown plan %q", id, p.DentalPlan)
		}
		if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
			t.Errorf("patient %d email %q is not valid", id, p.Email)
		}
		if len(p.CPF) != 11 || len(p.Phone) != 11 || len(p.BirthDate) != 8 {
			t.Errorf("patient %d has malformed identifiers: %+v", id, p)
		}
	}
	for _, pr := range m.procedures {
		if !apptIDs[pr.AppointmentID] {
			t.Errorf("procedure %d points at unknown appointment %d", pr.ID, pr.AppointmentID)
		}
		cost, ok := cat.Price(pr.Type)
		if !ok || cost != pr.Cost {
			t.Errorf("procedure %q cost %d does not match catalog", pr.Type, pr.Cost)
		}
	}
}

func TestRun_SameSeedSameData(t *testing.T) {
	run := func() []string {
		m := newMemStore()
		s, _ := newSeeder(t, m)
		if _, err := s.Run(context.Background(), Options{Patients: 5, Seed: 7, Now: seedNow}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var out []string
		for _, a := range m.appointments {
			out = append(out, a.ScheduledAt+a.Status.String())
		}
		return out
	}
	first, second := run(), run()
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Error("expected identical histories for the same seed")
	}
}

func TestRun_RetriesTakenCPF(t *testing.T) {
	m := newMemStore()
	m.conflicts = 2
	s, _ := newSeeder(t, m)

	if _, err := s.Run(context.Background(), Options{Patients: 1, Seed: 1, Now: seedNow}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.patients) != 1 {
		t.Errorf("expected 1 patient, got %d", len(m.patients))
	}
}

func TestRun_Errors(t *testing.T) {
	m := newMemStore()
	s, _ := newSeeder(t, m)
	if _, err := s.Run(context.Background(), Options{Patients: 0}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	m.failAppt = errors.New("disk full")
	if _, err := s.Run(context.Background(), Options{Patients: 1, Seed: 3, Now: seedNow}); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected appointment failure to surface, got %v", err)
	}
}

func TestEmailLocal(t *testing.T) {
	tests := map[string]string{
		"Patrícia Gomes":         "patricia.gomes",
		"João  Almeida":          "joao.almeida",
		"Larissa Oliveira Silva": "larissa.oliveira.silva",
	}
	for in, want := range tests {
		if got := emailLocal(in); got != want {
			t.Errorf("emailLocal(%q) = %q, want %q", in, got, want)
		}
	}
}
