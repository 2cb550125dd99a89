package summary

import (
	"context"
	"fmt"

	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/internal/platform/apperr"
)

// PatientSource is satisfied by *patient.Service.
type PatientSource interface {
	Get(ctx context.Context, id int) (*patient.Patient, error)
	ListAll(ctx context.Context) ([]*patient.Patient, error)
	ListByCompany(ctx context.Context, company string) ([]*patient.Patient, error)
	ListIndividual(ctx context.Context) ([]*patient.Patient, error)
	ListByCity(ctx context.Context, city string) ([]*patient.Patient, error)
}

type AppointmentSource interface {
	ListByPatient(ctx context.Context, patientID int) ([]*appointment.Appointment, error)
}

type ProcedureSource interface {
	ListByPatient(ctx context.Context, patientID int) ([]*procedure.Procedure, error)
}

type Service struct {
	patients     PatientSource
	appointments AppointmentSource
	procedures   ProcedureSource
}

func NewService(patients PatientSource, appointments AppointmentSource, procedures ProcedureSource) *Service {
	return &Service{patients: patients, appointments: appointments, procedures: procedures}
}

func (s *Service) load(ctx context.Context, p *patient.Patient) (Record, error) {
	appts, err := s.appointments.ListByPatient(ctx, p.ID)
	if err != nil {
		return Record{}, fmt.Errorf("appointments of patient %d: %w", p.ID, err)
	}
	procs, err := s.procedures.ListByPatient(ctx, p.ID)
	if err != nil {
		return Record{}, fmt.Errorf("procedures of patient %d: %w", p.ID, err)
	}
	byAppointment := make(map[int]*procedure.Procedure, len(procs))
	for _, pr := range procs {
		if _, dup := byAppointment[pr.AppointmentID]; !dup {
			byAppointment[pr.AppointmentID] = pr
		}
	}

	entries := make([]Entry, 0, len(appts))
	for _, a := range appts {
		entries = append(entries, Entry{Appointment: a, Procedure: byAppointment[a.ID]})
	}
	return Record{Patient: p, Entries: entries}, nil
}

func (s *Service) loadMany(ctx context.Context, patients []*patient.Patient, what string) ([]Record, error) {
	if len(patients) == 0 {
		return nil, apperr.NotFound("no patients found for %s", what)
	}
	out := make([]Record, 0, len(patients))
	for _, p := range patients {
		r, err := s.load(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Record loads one patient's history. A missing patient is not-found.
func (s *Service) Record(ctx context.Context, patientID int) (Record, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return Record{}, err
	}
	return s.load(ctx, p)
}

func (s *Service) RecordsByCompany(ctx context.Context, company string) ([]Record, error) {
	patients, err := s.patients.ListByCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, patients, fmt.Sprintf("company %q", company))
}

func (s *Service) IndividualRecords(ctx context.Context) ([]Record, error) {
	patients, err := s.patients.ListIndividual(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, patients, "individual plans")
}

func (s *Service) RecordsByCity(ctx context.Context, city string) ([]Record, error) {
	patients, err := s.patients.ListByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, patients, fmt.Sprintf("city %q", city))
}

func (s *Service) AllRecords(ctx context.Context) ([]Record, error) {
	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, patients, "the clinic")
}

func (s *Service) Sheet(ctx context.Context, patientID int) (Sheet, error) {
	r, err := s.Record(ctx, patientID)
	if err != nil {
		return Sheet{}, err
	}
	return BuildSheet(r), nil
}

func (s *Service) Overview(ctx context.Context, patientID int) (Overview, error) {
	r, err := s.Record(ctx, patientID)
	if err != nil {
		return Overview{}, err
	}
	return BuildOverview(r), nil
}

func (s *Service) SheetsByCompany(ctx context.Context, company string) ([]Sheet, error) {
	return sheets(s.RecordsByCompany(ctx, company))
}

func (s *Service) IndividualSheets(ctx context.Context) ([]Sheet, error) {
	return sheets(s.IndividualRecords(ctx))
}

func (s *Service) OverviewsByCompany(ctx context.Context, company string) ([]Overview, error) {
	return overviews(s.RecordsByCompany(ctx, company))
}

func (s *Service) IndividualOverviews(ctx context.Context) ([]Overview, error) {
	return overviews(s.IndividualRecords(ctx))
}

func sheets(records []Record, err error) ([]Sheet, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Sheet, 0, len(records))
	for _, r := range records {
		out = append(out, BuildSheet(r))
	}
	return out, nil
}

func overviews(records []Record, err error) ([]Overview, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Overview, 0, len(records))
	for _, r := range records {
		out = append(out, BuildOverview(r))
	}
	return out, nil
}
