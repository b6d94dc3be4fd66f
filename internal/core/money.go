// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integral paise. Rupee strings accept both plain
// (1234.5) and Indian-grouped (1,234.50) input.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Rupees builds a Money value from whole rupees.
func Rupees(r int64) Money {
	return Money{Paise: r * 100}
}

// ParseDecimalToPaise converts a decimal rupee string to paise with half-up
// rounding on the third decimal place. Grouping commas and a leading ₹ are
// ignored. Negative values are rejected; zero is allowed.
//
// Examples:
//
//	ParseDecimalToPaise("12.34")     -> 1234, nil
//	ParseDecimalToPaise("1,250.5")   -> 125050, nil
//	ParseDecimalToPaise("₹12.345")   -> 1235, nil
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}

// Float returns the rupee value for display and chart payloads.
// Use Paise for calculations.
func (m Money) Float() float64 {
	return float64(m.Paise) / 100.0
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

// Decimal renders the amount with two decimals and no grouping (bank files).
func (m Money) Decimal() string {
	neg := m.Paise < 0
	p := m.Paise
	if neg {
		p = -p
	}
	s := strconv.FormatInt(p/100, 10) + "." + twoDigits(p%100)
	if neg {
		return "-" + s
	}
	return s
}

// String formats the amount as Indian rupees with lakh/crore grouping,
// e.g. ₹12,34,567.50. Whole amounts omit the paise.
func (m Money) String() string {
	neg := m.Paise < 0
	p := m.Paise
	if neg {
		p = -p
	}
	s := "₹" + groupIndian(strconv.FormatInt(p/100, 10))
	if rem := p % 100; rem != 0 {
		s += "." + twoDigits(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian applies 3-2-2 digit grouping.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
