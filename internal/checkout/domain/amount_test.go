package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmountBRL(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int64
		err   error
	}{
		{"dot separator", "19.90", 1990, nil},
		{"comma separator", "19,90", 1990, nil},
		{"whole number", "50", 5000, nil},
		{"single fraction digit", "19.9", 1990, nil},
		{"max amount", "10000.00", 1_000_000, nil},
		{"three fraction digits rejected", "9.905", 0, ErrInvalidAmount},
		{"empty", "", 0, ErrInvalidAmount},
		{"letters", "abc", 0, ErrInvalidAmount},
		{"negative", "-5", 0, ErrInvalidAmount},
		{"zero", "0", 0, ErrInvalidAmount},
		{"zero with cents", "0,00", 0, ErrInvalidAmount},
		{"above ceiling", "10000.01", 0, ErrAmountTooLarge},
		{"lone separator", ".50", 0, ErrInvalidAmount},
		{"double separator", "1.2.3", 0, ErrInvalidAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmountBRL(tc.input)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatAmountBRL(t *testing.T) {
	assert.Equal(t, "R$ 19,90", FormatAmountBRL(1990))
	assert.Equal(t, "R$ 0,50", FormatAmountBRL(50))
	assert.Equal(t, "R$ 1.250,00", FormatAmountBRL(125000))
	assert.Equal(t, "R$ 10.000,00", FormatAmountBRL(1_000_000))
}

func TestAttemptStatusTerminal(t *testing.T) {
	assert.False(t, AttemptStatusPending.Terminal())
	assert.True(t, AttemptStatusApproved.Terminal())
	assert.True(t, AttemptStatusRejected.Terminal())
	assert.True(t, AttemptStatusExpired.Terminal())
	assert.False(t, AttemptStatus("bogus").Terminal())
}
