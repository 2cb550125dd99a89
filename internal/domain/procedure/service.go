package procedure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/pkg/money"
)

type AppointmentLookup interface {
	GetByID(ctx context.Context, id int) (*appointment.Appointment, error)
}

// PriceTable resolves a procedure type to its cost.
type PriceTable interface {
	Price(procedureType string) (money.Cents, bool)
}

type Service struct {
	procedures   Repository
	appointments AppointmentLookup
	prices       PriceTable
}

func NewService(procedures Repository, appointments AppointmentLookup, prices PriceTable) *Service {
	return &Service{procedures: procedures, appointments: appointments, prices: prices}
}

type Request struct {
	AppointmentID int    `json:"appointment_id"`
	Type          string `json:"procedure_type"`
	Description   string `json:"description"`
}

func (s *Service) priced(req Request) (string, money.Cents, error) {
	if len([]rune(req.Description)) > 300 {
		return "", 0, apperr.Validation("description must be at most 300 characters")
	}
	cost, ok := s.prices.Price(req.Type)
	if !ok {
		return "", 0, apperr.Validation("procedure type %q is not in the price table", req.Type)
	}
	return strings.TrimSpace(req.Description), cost, nil
}

// Create attaches a procedure to an appointment that has none yet.
func (s *Service) Create(ctx context.Context, req Request) (*Procedure, error) {
	if req.AppointmentID <= 0 {
		return nil, apperr.Validation("appointment_id is required")
	}
	if _, err := s.appointments.GetByID(ctx, req.AppointmentID); err != nil {
		return nil, err
	}

	existing, err := s.procedures.GetByAppointment(ctx, req.AppointmentID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("check existing procedure: %w", err)
	}
	if existing != nil {
		return nil, apperr.InvalidConflict("appointment %d already has a procedure", req.AppointmentID)
	}

	desc, cost, err := s.priced(req)
	if err != nil {
		return nil, err
	}
	p := &Procedure{AppointmentID: req.AppointmentID, Type: req.Type, Description: desc, Cost: cost}
	if err := s.procedures.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Procedure, error) {
	return s.procedures.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID int) (*Procedure, error) {
	return s.procedures.GetByAppointment(ctx, appointmentID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Procedure, int, error) {
	return s.procedures.List(ctx, limit, offset)
}

// Update changes type and description. The cost is re-read from the price
// table. The appointment link never changes.
func (s *Service) Update(ctx context.Context, id int, req Request) (*Procedure, error) {
	p, err := s.procedures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	desc, cost, err := s.priced(req)
	if err != nil {
		return nil, err
	}
	p.Type = req.Type
	p.Description = desc
	p.Cost = cost
	if err := s.procedures.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.procedures.Delete(ctx, id)
}
