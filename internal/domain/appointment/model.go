package appointment

import (
	"fmt"
	"time"

	"github.com/smartdent/smartdent/pkg/brfmt"
)

const (
	// ScheduleLayout is the stored ddMMyyyyHHmm form.
	ScheduleLayout = "020120061504"
	// InvalidDate replaces display times that cannot be parsed.
	InvalidDate = "Data inválida"
)

// Location is the clinic's wall clock used to interpret schedules.
var Location = time.Local

type Appointment struct {
	ID          int       `json:"id"`
	PatientID   int       `json:"patient_id"`
	ScheduledAt string    `json:"scheduled_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// ScheduledTime caches the parsed ScheduledAt. ScheduledAt stays the
	// source of truth.
	ScheduledTime *time.Time `json:"-"`
}

// ParseSchedule parses a 12-digit ddMMyyyyHHmm string in the clinic location.
func ParseSchedule(s string) (time.Time, error) {
	if !brfmt.IsDigits(s, 12) {
		return time.Time{}, fmt.Errorf("schedule %q must have 12 digits (ddMMyyyyHHmm)", s)
	}
	t, err := time.ParseInLocation(ScheduleLayout, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule %q is not a valid date: %w", s, err)
	}
	return t, nil
}

// SetSchedule stores raw and refreshes the cache. On a parse failure the
// raw value is still stored and the cache cleared.
func (a *Appointment) SetSchedule(raw string) error {
	a.ScheduledAt = raw
	a.ScheduledTime = nil
	t, err := ParseSchedule(raw)
	if err != nil {
		return err
	}
	a.ScheduledTime = &t
	return nil
}

// Time returns the cached time, parsing ScheduledAt when the cache is empty.
func (a *Appointment) Time() (time.Time, bool) {
	if a.ScheduledTime != nil {
		return *a.ScheduledTime, true
	}
	t, err := ParseSchedule(a.ScheduledAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DisplayTime renders dd/MM/yyyy HH:mm, or InvalidDate.
func (a *Appointment) DisplayTime() string {
	t, ok := a.Time()
	if !ok {
		return InvalidDate
	}
	return t.Format(brfmt.DateTimeLayout)
}

func (a *Appointment) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// View is the JSON form returned by the API.
type View struct {
	ID          int    `json:"id"`
	PatientID   int    `json:"patient_id"`
	ScheduledAt string `json:"scheduled_at"`
	Date        string `json:"date"`
	Status      Status `json:"status"`
}

func (a *Appointment) View() View {
	return View{
		ID:          a.ID,
		PatientID:   a.PatientID,
		ScheduledAt: a.ScheduledAt,
		Date:        a.DisplayTime(),
		Status:      a.Status,
	}
}
