// Package money holds amounts as integer centavos and formats them for the
// clinic (pt-BR) and for machine consumers (invariant, two decimals).
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is an amount in centavos.
type Cents int64

func FromFloat(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// ParseDecimal reads an invariant decimal string such as "450", "450.5" or
// "1,234.50". Commas are treated as group separators.
func ParseDecimal(s string) (Cents, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("parse amount %q: empty", s)
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse amount %q: not a decimal number", s)
	}
	return FromFloat(f), nil
}

func (c Cents) Float64() float64 {
	return float64(c) / 100
}

func (c Cents) split() (neg bool, units int64, cents int64) {
	v := int64(c)
	if v < 0 {
		neg, v = true, -v
	}
	return neg, v / 100, v % 100
}

// Invariant renders the amount with a dot and two decimals, e.g. "1234.50".
func (c Cents) Invariant() string {
	neg, units, cents := c.split()
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, units, cents)
}

// BRL renders the amount as Brazilian currency, e.g. "R$ 1.234,50".
func (c Cents) BRL() string {
	neg, units, cents := c.split()
	digits := strconv.FormatInt(units, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	fmt.Fprintf(&b, ",%02d", cents)
	return b.String()
}

func (c Cents) String() string { return c.BRL() }

// MarshalJSON emits a JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Invariant()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	v, err := ParseDecimal(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
