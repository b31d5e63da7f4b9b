package textutil

import "testing"

func TestNormalizeAmountToken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain decimal", "123.45", "123.45"},
		{"currency symbol stripped", "₪ 123.45", "123.45"},
		{"comma as decimal point", "45,90", "45.90"},
		{"comma as thousands with dot", "1,234.56", "1234.56"},
		{"repeated commas", "1,234,567", "1234567"},
		{"reversed digit groups", "123.456", "654.321"},
		{"reversed short head", "45.678", "678.45"},
		{"negative preserved", "-12.50", "-12.50"},
		{"no digits", "---", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAmountToken(tt.raw); got != tt.want {
				t.Errorf("NormalizeAmountToken(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1,234.56", 1234.56, true},
		{"45,90", 45.90, true},
		{"-7", -7, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

// Well-formed decimal strings with at most two fractional digits must parse
// to the same value a direct decimal parse would give.
func TestParseNumberRoundTrip(t *testing.T) {
	cases := map[string]float64{
		"0.5":    0.5,
		"12.30":  12.30,
		"100":    100,
		"999.99": 999.99,
		"-3.25":  -3.25,
	}
	for raw, want := range cases {
		got, ok := ParseNumber(raw)
		if !ok || got != want {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, true)", raw, got, ok, want)
		}
	}
}

func TestSelectAmount(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   float64
		ok     bool
	}{
		{
			// The lone two-decimal candidate wins over the year token and
			// the bare integer.
			name:   "two-decimal candidate preferred",
			tokens: []string{"2024", "12.30", "100", "5.555"},
			want:   12.30,
			ok:     true,
		},
		{
			name:   "year tokens filtered",
			tokens: []string{"2023", "2024"},
			want:   0,
			ok:     false,
		},
		{
			name:   "any decimal beats integer",
			tokens: []string{"100", "5.555"},
			want:   5.555,
			ok:     true,
		},
		{
			name:   "large integer over small",
			tokens: []string{"3", "150"},
			want:   150,
			ok:     true,
		},
		{
			name:   "first candidate as last resort",
			tokens: []string{"3", "7"},
			want:   3,
			ok:     true,
		},
		{
			name:   "empty",
			tokens: nil,
			want:   0,
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectAmount(tt.tokens)
			if ok != tt.ok || got != tt.want {
				t.Errorf("SelectAmount(%v) = (%v, %v), want (%v, %v)",
					tt.tokens, got, ok, tt.want, tt.ok)
			}
		})
	}
}
