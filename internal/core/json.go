package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalJSON renders money as a rupee number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts a rupee number or a decimal string ("1,500.50").
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	p, err := ParseDecimalToPaise(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	m.Paise = p
	return nil
}

// MarshalJSON renders the date as YYYY-MM-DD, or null when empty.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if string(b) != "null" {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
