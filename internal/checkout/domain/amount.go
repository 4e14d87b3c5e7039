package domain

import (
	"fmt"
	"strings"
)

// MaxAmountCents is the sanity ceiling for a single checkout (R$ 10.000,00).
const MaxAmountCents int64 = 1_000_000

// ParseAmountBRL parses a decimal BRL amount ("19.90" or "19,90") into
// centavos. More than two fraction digits is rejected outright rather than
// rounded, so "9.905" never drifts silently.
func ParseAmountBRL(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, ErrInvalidAmount
	}
	value = strings.ReplaceAll(value, ",", ".")

	whole := value
	frac := ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole = value[:idx]
		frac = value[idx+1:]
	}
	if whole == "" || len(frac) > 2 || strings.ContainsRune(frac, '.') {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	cents := int64(0)
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents = cents*10 + int64(r-'0')
		if cents > MaxAmountCents {
			return 0, ErrAmountTooLarge
		}
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatAmountBRL renders centavos in Brazilian notation ("R$ 19,90").
func FormatAmountBRL(cents int64) string {
	whole := cents / 100
	frac := cents % 100
	if frac < 0 {
		frac = -frac
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 && d != '-' {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("R$ %s,%02d", b.String(), frac)
}
