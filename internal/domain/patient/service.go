package patient

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
	"github.com/smartdent/smartdent/pkg/brfmt"
)

// PlanCatalog is the dental plan allow-list.
type PlanCatalog interface {
	IsPlanAllowed(plan string) bool
}

// DependentRemover deletes records owned by a patient. Appointments (with
// their procedures) and alerts register one each.
type DependentRemover interface {
	DeleteByPatient(ctx context.Context, patientID int) error
}

type Service struct {
	patients   Repository
	plans      PlanCatalog
	tx         db.Transactor
	dependents []DependentRemover
}

func NewService(patients Repository, plans PlanCatalog, tx db.Transactor) *Service {
	return &Service{patients: patients, plans: plans, tx: tx}
}

// AddDependents registers removers run before the patient row is deleted.
func (s *Service) AddDependents(removers ...DependentRemover) {
	s.dependents = append(s.dependents, removers...)
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Company = strings.TrimSpace(p.Company)
	if p.Company == "" {
		p.Company = IndividualCompany
	}

	if !brfmt.IsDigits(p.CPF, 11) {
		return apperr.Validation("cpf must have exactly 11 digits")
	}
	if !brfmt.IsDigits(p.BirthDate, 8) {
		return apperr.Validation("birth_date must have 8 digits (ddMMyyyy)")
	}
	if _, err := brfmt.ParseBirthDate(p.BirthDate); err != nil {
		return apperr.Validation("birth_date %s is not a valid date", p.BirthDate)
	}
	if err := s.validateProfile(p); err != nil {
		return err
	}

	existing, err := s.patients.GetByCPF(ctx, p.CPF)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("check cpf: %w", err)
	}
	if existing != nil {
		return apperr.Conflict("a patient with CPF %s already exists", p.CPF)
	}

	p.NumConsultations = 0
	return s.patients.Create(ctx, p)
}

func (s *Service) validateProfile(p *Patient) error {
	if p.FullName == "" {
		return apperr.Validation("full_name is required")
	}
	if len([]rune(p.FullName)) > 100 {
		return apperr.Validation("full_name must be at most 100 characters")
	}
	if p.Email == "" {
		return apperr.Validation("email is required")
	}
	if len(p.Email) > 100 {
		return apperr.Validation("email must be at most 100 characters")
	}
	if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
		return apperr.Validation("email %q is not a valid address", p.Email)
	}
	if !brfmt.IsDigits(p.Phone, 11) {
		return apperr.Validation("phone must have exactly 11 digits")
	}
	if len([]rune(p.Address)) > 200 {
		return apperr.Validation("address must be at most 200 characters")
	}
	if !s.plans.IsPlanAllowed(p.DentalPlan) {
		return apperr.Validation("dental_plan %q is not offered", p.DentalPlan)
	}
	if p.Company == "" {
		return apperr.Validation("company is required")
	}
	if len([]rune(p.Company)) > 100 {
		return apperr.Validation("company must be at most 100 characters")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// UpdateProfile changes contact, plan and employer fields only.
func (s *Service) UpdateProfile(ctx context.Context, id int, u ProfileUpdate) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.apply(p)
	if err := s.validateProfile(p); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the patient together with everything registered as a
// dependent, in one transaction.
func (s *Service) Delete(ctx context.Context, id int) error {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, d := range s.dependents {
			if err := d.DeleteByPatient(ctx, id); err != nil {
				return fmt.Errorf("delete dependents of patient %d: %w", id, err)
			}
		}
		return s.patients.Delete(ctx, id)
	})
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) ListAll(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListAll(ctx)
}

func (s *Service) ListByCompany(ctx context.Context, company string) ([]*Patient, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, apperr.Validation("company is required")
	}
	return s.patients.ListByCompany(ctx, company)
}

func (s *Service) ListIndividual(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListByCompany(ctx, IndividualCompany)
}

// ListByCity matches city as a case-insensitive substring of the address.
func (s *Service) ListByCity(ctx context.Context, city string) ([]*Patient, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, apperr.Validation("city is required")
	}
	all, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Patient
	for _, p := range all {
		if p.LivesIn(city) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Companies lists employers with at least one patient, excluding Individual.
func (s *Service) Companies(ctx context.Context) ([]string, error) {
	companies, err := s.patients.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, apperr.NotFound("no companies registered")
	}
	return companies, nil
}

// Cities lists the distinct cities found in patient addresses.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	all, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var cities []string
	for _, p := range all {
		if c := p.City(); c != "" && !seen[c] {
			seen[c] = true
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		return nil, apperr.NotFound("no cities registered")
	}
	sort.Strings(cities)
	return cities, nil
}
