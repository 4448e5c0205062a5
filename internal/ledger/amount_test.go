package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25", "25"},
		{"25.50", "25.5"},
		{" 12.3 ", "12.3"},
		{"$1,200", "1200"},
		{"1 200,50", "120050"},
		{"40 €", "40"},
		{"+7", "7"},
		{".5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in, false)
			require.NoError(t, err)
			assertAmount(t, tt.want, got)
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []string{"0", "-5", "abc", "", "  ", "$", "1.2.3", "5$5", "0.00"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAmount(in, false)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseAmountAllowNonPositive(t *testing.T) {
	got, err := ParseAmount("-$40", true)
	require.NoError(t, err)
	assertAmount(t, "-40", got)

	got, err = ParseAmount("0", true)
	require.NoError(t, err)
	assertAmount(t, "0", got)

	_, err = ParseAmount("abc", true)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
