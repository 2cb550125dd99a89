package alert

import (
	"strings"
	"time"

	"github.com/smartdent/smartdent/pkg/brfmt"
)

const (
	TypeExcessiveUse     = "UsoExcessivo"
	TypeTrendingToExcess = "Uso Moderado com Tendência a Excesso"
)

// DirectTypes may be created or set by hand.
var DirectTypes = []string{TypeExcessiveUse, TypeTrendingToExcess}

// IsPersistable reports whether a classifier verdict deserves an alert:
// any type mentioning "excessivo", or the trending-to-excess label.
func IsPersistable(alertType string) bool {
	return strings.Contains(strings.ToLower(alertType), "excessivo") ||
		strings.EqualFold(strings.TrimSpace(alertType), TypeTrendingToExcess)
}

type Alert struct {
	ID            int       `json:"id"`
	PatientID     int       `json:"patient_id"`
	Type          string    `json:"alert_type"`
	RiskGrade     string    `json:"risk_grade"`
	Justification string    `json:"justification"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type View struct {
	ID            int    `json:"id"`
	PatientID     int    `json:"patient_id"`
	Type          string `json:"alert_type"`
	RiskGrade     string `json:"risk_grade"`
	Justification string `json:"justification"`
	GeneratedAt   string `json:"generated_at"`
}

func (a *Alert) View() View {
	return View{
		ID:            a.ID,
		PatientID:     a.PatientID,
		Type:          a.Type,
		RiskGrade:     a.RiskGrade,
		Justification: a.Justification,
		GeneratedAt:   a.GeneratedAt.Format(brfmt.DateTimeLayout),
	}
}
