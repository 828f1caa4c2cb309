package products

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"comma separator", "1,99", "1.99"},
		{"period separator", "1.99", "1.99"},
		{"integer", "10", "10"},
		{"trimmed", " 2,5 ", "2.5"},
		{"negative parses", "-1", "-1"},
		// No parseable: cae a 0 para que falle el rango.
		{"letters", "abc", "0"},
		{"symbols", "!@#$%^&*", "0"},
		{"empty", "", "0"},
		{"two separators", "1,234.5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.raw)
			require.True(t, decimal.RequireFromString(tt.want).Equal(got), "raw=%q got=%s", tt.raw, got)
		})
	}
}

func TestNormalizeStock(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{"digits", "1337", 1337, true},
		{"zero is parseable", "0", 0, true},
		{"trimmed", " 42 ", 42, true},
		{"max int32", "2147483647", MaxQuantity, true},
		{"above int32", "2147483648", 0, false},
		{"negative", "-1", 0, false},
		{"comma", "0,1", 0, false},
		{"period", "0.1", 0, false},
		{"letters", "abc", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeStock(tt.raw)
			require.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
			require.Equal(t, tt.want, got)
		})
	}
}
