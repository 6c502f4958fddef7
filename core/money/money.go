// Package money formats and parses decimal amounts.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders d as "$12.34".
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Cents converts d to the smallest currency unit, rounding half away from zero.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// Parse accepts "12.34", "$12.34" and surrounding whitespace.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return decimal.Zero, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

// Flexible decodes from a JSON number or a numeric string. Backends report
// aggregate revenue either way.
type Flexible struct {
	decimal.Decimal
}

func (f *Flexible) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			f.Decimal = decimal.Zero
			return nil
		}
		d, err := Parse(s)
		if err != nil {
			return err
		}
		f.Decimal = d
		return nil
	}
	return f.Decimal.UnmarshalJSON(b)
}
