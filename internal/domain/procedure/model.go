package procedure

import (
	"time"

	"github.com/smartdent/smartdent/pkg/money"
)

// Procedure is the single billable act performed during an appointment.
// Cost is copied from the price table when the type is set.
type Procedure struct {
	ID            int         `json:"id"`
	AppointmentID int         `json:"appointment_id"`
	Type          string      `json:"procedure_type"`
	Description   string      `json:"description,omitempty"`
	Cost          money.Cents `json:"cost"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type View struct {
	ID            int    `json:"id"`
	AppointmentID int    `json:"appointment_id"`
	Type          string `json:"procedure_type"`
	Description   string `json:"description,omitempty"`
	Cost          string `json:"cost"`
}

func (p *Procedure) View() View {
	return View{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		Type:          p.Type,
		Description:   p.Description,
		Cost:          p.Cost.BRL(),
	}
}
