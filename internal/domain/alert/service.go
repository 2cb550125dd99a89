package alert

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/platform/apperr"
)

type PatientLookup interface {
	GetByID(ctx context.Context, id int) (*patient.Patient, error)
}

type Service struct {
	alerts   Repository
	patients PatientLookup
	now      func() time.Time
}

func NewService(alerts Repository, patients PatientLookup) *Service {
	return &Service{alerts: alerts, patients: patients, now: time.Now}
}

// Input is the body of manual create and update requests.
type Input struct {
	PatientID     int    `json:"patient_id"`
	Type          string `json:"alert_type"`
	RiskGrade     string `json:"risk_grade"`
	Justification string `json:"justification"`
}

func validateInput(in *Input) error {
	in.Type = strings.TrimSpace(in.Type)
	in.RiskGrade = strings.TrimSpace(in.RiskGrade)
	in.Justification = strings.TrimSpace(in.Justification)
	if !slices.Contains(DirectTypes, in.Type) {
		return apperr.Validation("alert_type must be one of %q", DirectTypes)
	}
	if in.RiskGrade == "" {
		return apperr.Validation("risk_grade is required")
	}
	if in.Justification == "" {
		return apperr.Validation("justification is required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Alert, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, in.PatientID); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, in.PatientID, in.Type, 0); err != nil {
		return nil, err
	}

	a := &Alert{
		PatientID:     in.PatientID,
		Type:          in.Type,
		RiskGrade:     in.RiskGrade,
		Justification: in.Justification,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ensureFree fails when another alert (not selfID) already holds the
// patient and type.
func (s *Service) ensureFree(ctx context.Context, patientID int, alertType string, selfID int) error {
	existing, err := s.alerts.FindByPatientAndType(ctx, patientID, alertType)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperr.Conflict("patient %d already has a %q alert (id %d)", patientID, alertType, existing.ID)
	}
	return nil
}

// Update replaces type, grade and justification. The patient never changes.
func (s *Service) Update(ctx context.Context, id int, in Input) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, a.PatientID, in.Type, a.ID); err != nil {
		return nil, err
	}
	a.Type = in.Type
	a.RiskGrade = in.RiskGrade
	a.Justification = in.Justification
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Upsert records a classifier verdict: the alert of the same patient and
// type (ignoring case) is refreshed, or a new one is created. created
// reports which happened.
func (s *Service) Upsert(ctx context.Context, patientID int, alertType, riskGrade, justification string) (a *Alert, created bool, err error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, false, err
	}

	existing, err := s.alerts.FindByPatientAndType(ctx, patientID, alertType)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	now := s.now().UTC()

	if existing != nil {
		existing.RiskGrade = riskGrade
		existing.Justification = justification
		existing.GeneratedAt = now
		if err := s.alerts.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	a = &Alert{
		PatientID:     patientID,
		Type:          alertType,
		RiskGrade:     riskGrade,
		Justification: justification,
		GeneratedAt:   now,
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Alert, error) {
	return s.alerts.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]*Alert, error) {
	items, err := s.alerts.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("no alerts for patient %d", patientID)
	}
	return items, nil
}

func (s *Service) ListExcessiveUse(ctx context.Context) ([]*Alert, error) {
	return s.listType(ctx, TypeExcessiveUse)
}

func (s *Service) ListTrendingToExcess(ctx context.Context) ([]*Alert, error) {
	return s.listType(ctx, TypeTrendingToExcess)
}

func (s *Service) listType(ctx context.Context, alertType string) ([]*Alert, error) {
	items, err := s.alerts.ListByType(ctx, alertType)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("no %q alerts", alertType)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.alerts.Delete(ctx, id)
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.alerts.DeleteAll(ctx)
}

func (s *Service) DeleteByPatient(ctx context.Context, patientID int) error {
	return s.alerts.DeleteByPatient(ctx, patientID)
}
