// Package riskanalysis sends patient histories to the usage-risk
// classifier and turns its verdicts into alerts.
package riskanalysis

import (
	"github.com/smartdent/smartdent/internal/domain/summary"
	"github.com/smartdent/smartdent/pkg/brfmt"
)

// The classifier speaks Portuguese field names.

type ProcedurePayload struct {
	ID          int    `json:"idProcedimento"`
	Type        string `json:"tipoProcedimento"`
	Description string `json:"descricao"`
	Cost        string `json:"custo"`
}

type VisitPayload struct {
	ID        int               `json:"idConsulta"`
	Date      string            `json:"dataConsulta"`
	Status    string            `json:"status"`
	Procedure *ProcedurePayload `json:"procedimento"`
}

type PatientPayload struct {
	PatientID        int            `json:"idPaciente"`
	FullName         string         `json:"nomeCompleto"`
	CPF              string         `json:"cpf"`
	BirthDate        string         `json:"dataNascimento"`
	Company          string         `json:"empresa"`
	Email            string         `json:"email"`
	Phone            string         `json:"telefone"`
	Address          string         `json:"endereco"`
	DentalPlan       string         `json:"planoOdontologico"`
	NumConsultations int            `json:"numConsultas"`
	TotalSpent       string         `json:"gastoTotal"`
	Visits           []VisitPayload `json:"consultas"`
}

// BuildPayload describes one patient for the classifier. NumConsultations
// is the realized-visit count, not the stored counter. Appointments whose
// schedule cannot be parsed are left out.
func BuildPayload(r summary.Record) PatientPayload {
	p := r.Patient
	totals := r.Totals()

	visits := make([]VisitPayload, 0, len(r.Entries))
	for _, e := range r.Entries {
		t, ok := e.Appointment.Time()
		if !ok {
			continue
		}
		v := VisitPayload{
			ID:     e.Appointment.ID,
			Date:   t.Format(brfmt.DateTimeLayout),
			Status: e.Appointment.Status.String(),
		}
		if e.Procedure != nil {
			v.Procedure = &ProcedurePayload{
				ID:          e.Procedure.ID,
				Type:        e.Procedure.Type,
				Description: e.Procedure.Description,
				Cost:        e.Procedure.Cost.Invariant(),
			}
		}
		visits = append(visits, v)
	}

	return PatientPayload{
		PatientID:        p.ID,
		FullName:         p.FullName,
		CPF:              p.CPF,
		BirthDate:        p.BirthDate,
		Company:          p.Company,
		Email:            p.Email,
		Phone:            p.Phone,
		Address:          p.Address,
		DentalPlan:       p.DentalPlan,
		NumConsultations: totals.RealizedVisits,
		TotalSpent:       totals.Spent.BRL(),
		Visits:           visits,
	}
}

func BuildPayloads(records []summary.Record) []PatientPayload {
	out := make([]PatientPayload, 0, len(records))
	for _, r := range records {
		out = append(out, BuildPayload(r))
	}
	return out
}
