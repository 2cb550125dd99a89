// Package brfmt formats Brazilian personal data for display.
package brfmt

import (
	"strings"
	"time"
)

const (
	// BirthDateLayout is the stored ddMMyyyy form.
	BirthDateLayout = "02012006"
	// DateLayout is the dd/MM/yyyy display form.
	DateLayout = "02/01/2006"
	// DateTimeLayout is the dd/MM/yyyy HH:mm display form.
	DateTimeLayout = "02/01/2006 15:04"
)

// Digits strips every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsDigits reports whether s consists of exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CPF renders an 11-digit CPF as 000.000.000-00. Other input is returned unchanged.
func CPF(cpf string) string {
	if !IsDigits(cpf, 11) {
		return cpf
	}
	return cpf[0:3] + "." + cpf[3:6] + "." + cpf[6:9] + "-" + cpf[9:]
}

// Phone renders 11-digit mobile numbers as (00) 00000-0000 and 10-digit
// landlines as (00) 0000-0000.
func Phone(phone string) string {
	switch {
	case IsDigits(phone, 11):
		return "(" + phone[0:2] + ") " + phone[2:7] + "-" + phone[7:]
	case IsDigits(phone, 10):
		return "(" + phone[0:2] + ") " + phone[2:6] + "-" + phone[6:]
	default:
		return phone
	}
}

// ParseBirthDate parses a ddMMyyyy string.
func ParseBirthDate(s string) (time.Time, error) {
	return time.Parse(BirthDateLayout, s)
}

// BirthDate renders ddMMyyyy as dd/MM/yyyy, or returns the input when it
// does not parse.
func BirthDate(s string) string {
	t, err := ParseBirthDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}
