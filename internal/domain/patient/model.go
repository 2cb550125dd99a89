package patient

import (
	"strings"
	"time"

	"github.com/smartdent/smartdent/pkg/brfmt"
)

// IndividualCompany tags patients who hold a personal plan.
const IndividualCompany = "Individual"

type Patient struct {
	ID               int       `json:"id"`
	FullName         string    `json:"full_name"`
	CPF              string    `json:"cpf"`
	BirthDate        string    `json:"birth_date"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address,omitempty"`
	DentalPlan       string    `json:"dental_plan"`
	Company          string    `json:"company"`
	NumConsultations int       `json:"num_consultations"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *Patient) IsIndividual() bool {
	return p.Company == IndividualCompany
}

// City is the last comma-separated part of the address.
func (p *Patient) City() string {
	if strings.TrimSpace(p.Address) == "" {
		return ""
	}
	parts := strings.Split(p.Address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// LivesIn reports whether city appears anywhere in the address, ignoring case.
func (p *Patient) LivesIn(city string) bool {
	return strings.Contains(strings.ToLower(p.Address), strings.ToLower(city))
}

// ProfileUpdate holds the fields that may change after registration.
// CPF and birth date are fixed.
type ProfileUpdate struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	DentalPlan string `json:"dental_plan"`
	Company    string `json:"company"`
}

func (u ProfileUpdate) apply(p *Patient) {
	p.FullName = strings.TrimSpace(u.FullName)
	p.Email = strings.TrimSpace(u.Email)
	p.Phone = u.Phone
	p.Address = strings.TrimSpace(u.Address)
	p.DentalPlan = u.DentalPlan
	p.Company = strings.TrimSpace(u.Company)
}

// EditView is what the edit form is prefilled with.
type EditView struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	DentalPlan string `json:"dental_plan"`
	Company    string `json:"company"`
}

func (p *Patient) EditView() EditView {
	return EditView{
		ID:         p.ID,
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      brfmt.Phone(p.Phone),
		Address:    p.Address,
		DentalPlan: p.DentalPlan,
		Company:    p.Company,
	}
}
