package appointment

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an appointment. The zero value is not a
// valid status.
type Status uint8

const (
	StatusScheduled Status = iota + 1
	StatusCompleted
	StatusCancelled
	StatusNotCompleted
)

// Labels used by the clinic staff, on the wire and in the database.
var statusLabels = map[Status]string{
	StatusScheduled:    "Agendada",
	StatusCompleted:    "Realizada",
	StatusCancelled:    "Cancelada",
	StatusNotCompleted: "Não Realizada",
}

var statusAliases = map[string]Status{
	"scheduled":     StatusScheduled,
	"completed":     StatusCompleted,
	"cancelled":     StatusCancelled,
	"canceled":      StatusCancelled,
	"not_completed": StatusNotCompleted,
	"notcompleted":  StatusNotCompleted,
}

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNotCompleted}

// ParseStatus accepts the clinic label or the English name, ignoring case
// and surrounding space.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, statusLabels[st]) {
			return st, nil
		}
	}
	if st, ok := statusAliases[strings.ToLower(s)]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("unknown appointment status %q", s)
}

func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid appointment status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(data []byte) error {
	st, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Labels returns the clinic labels of every status.
func Labels() []string {
	out := make([]string, len(Statuses))
	for i, st := range Statuses {
		out[i] = st.String()
	}
	return out
}
