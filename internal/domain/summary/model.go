// Package summary aggregates a patient's appointments and procedures into
// realized totals and the patient sheet ("ficha").
package summary

import (
	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/pkg/brfmt"
	"github.com/smartdent/smartdent/pkg/money"
)

// Entry is one appointment and its procedure, if any.
type Entry struct {
	Appointment *appointment.Appointment
	Procedure   *procedure.Procedure
}

// Record is a patient with its full history in appointment order.
type Record struct {
	Patient *patient.Patient
	Entries []Entry
}

type Totals struct {
	Spent          money.Cents
	RealizedVisits int
}

// Aggregate sums procedure costs and counts visits over completed
// appointments only. Negative costs are ignored.
func Aggregate(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		if e.Appointment == nil || !e.Appointment.IsCompleted() {
			continue
		}
		t.RealizedVisits++
		if e.Procedure != nil && e.Procedure.Cost > 0 {
			t.Spent += e.Procedure.Cost
		}
	}
	return t
}

func (r Record) Totals() Totals {
	return Aggregate(r.Entries)
}

type ProcedureLine struct {
	ID          int    `json:"id"`
	Type        string `json:"procedure_type"`
	Description string `json:"description,omitempty"`
	Cost        string `json:"cost"`
}

type VisitLine struct {
	AppointmentID int                `json:"appointment_id"`
	Date          string             `json:"date"`
	Status        appointment.Status `json:"status"`
	Procedure     *ProcedureLine     `json:"procedure"`
}

// Sheet is the complete patient record with formatted contact data.
// NumConsultations is the stored counter of appointments ever booked;
// RealizedVisits counts completed ones.
type Sheet struct {
	PatientID        int         `json:"patient_id"`
	FullName         string      `json:"full_name"`
	CPF              string      `json:"cpf"`
	BirthDate        string      `json:"birth_date"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
	Address          string      `json:"address"`
	DentalPlan       string      `json:"dental_plan"`
	Company          string      `json:"company"`
	NumConsultations int         `json:"num_consultations"`
	RealizedVisits   int         `json:"realized_visits"`
	TotalSpent       string      `json:"total_spent"`
	Visits           []VisitLine `json:"visits"`
}

// Overview is the short form of a Sheet.
type Overview struct {
	PatientID        int    `json:"patient_id"`
	FullName         string `json:"full_name"`
	CPF              string `json:"cpf"`
	DentalPlan       string `json:"dental_plan"`
	Company          string `json:"company"`
	NumConsultations int    `json:"num_consultations"`
	TotalSpent       string `json:"total_spent"`
}

// BuildSheet lists every appointment once, in input order. Unparseable
// schedules are shown as appointment.InvalidDate.
func BuildSheet(r Record) Sheet {
	p := r.Patient
	totals := r.Totals()
	visits := make([]VisitLine, 0, len(r.Entries))
	for _, e := range r.Entries {
		line := VisitLine{
			AppointmentID: e.Appointment.ID,
			Date:          e.Appointment.DisplayTime(),
			Status:        e.Appointment.Status,
		}
		if e.Procedure != nil {
			line.Procedure = &ProcedureLine{
				ID:          e.Procedure.ID,
				Type:        e.Procedure.Type,
				Description: e.Procedure.Description,
				Cost:        e.Procedure.Cost.BRL(),
			}
		}
		visits = append(visits, line)
	}
	return Sheet{
		PatientID:        p.ID,
		FullName:         p.FullName,
		CPF:              brfmt.CPF(p.CPF),
		BirthDate:        brfmt.BirthDate(p.BirthDate),
		Email:            p.Email,
		Phone:            brfmt.Phone(p.Phone),
		Address:          p.Address,
		DentalPlan:       p.DentalPlan,
		Company:          p.Company,
		NumConsultations: p.NumConsultations,
		RealizedVisits:   totals.RealizedVisits,
		TotalSpent:       totals.Spent.BRL(),
		Visits:           visits,
	}
}

func BuildOverview(r Record) Overview {
	p := r.Patient
	return Overview{
		PatientID:        p.ID,
		FullName:         p.FullName,
		CPF:              brfmt.CPF(p.CPF),
		DentalPlan:       p.DentalPlan,
		Company:          p.Company,
		NumConsultations: p.NumConsultations,
		TotalSpent:       r.Totals().Spent.BRL(),
	}
}
