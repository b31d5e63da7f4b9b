package textutil

import (
	"testing"
	"time"
)

func TestNormalizeDateToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		defaultDay int
		want       string
		ok         bool
	}{
		{"iso", "2024-03-15", 0, "2024-03-15", true},
		{"slashes day first", "15/03/2024", 0, "2024-03-15", true},
		{"dots day first", "15.03.2024", 0, "2024-03-15", true},
		{"month first retry", "03/15/2024", 0, "2024-03-15", true},
		{"two digit year", "15/03/24", 0, "2024-03-15", true},
		{"named month", "5-Mar-2024", 0, "2024-03-05", true},
		{"year month", "2024-03", 0, "2024-03-01", true},
		{"year month custom day", "2024-02", 31, "2024-02-29", true},
		{"month year", "03/2024", 0, "2024-03-01", true},
		{"hebrew month name", "מרץ 2024", 0, "2024-03-01", true},
		{"english month name", "March 2024", 0, "2024-03-01", true},
		{"invalid month", "15/13/2024", 0, "", false},
		{"garbage", "hello", 0, "", false},
		{"empty", "", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDateToken(tt.token, tt.defaultDay)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeDateToken(%q, %d) = (%q, %v), want (%q, %v)",
					tt.token, tt.defaultDay, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMonthNumber(t *testing.T) {
	if m, ok := MonthNumber("ינואר"); !ok || m != 1 {
		t.Errorf("MonthNumber(ינואר) = (%d, %v), want (1, true)", m, ok)
	}
	if m, ok := MonthNumber("SEP"); !ok || m != 9 {
		t.Errorf("MonthNumber(SEP) = (%d, %v), want (9, true)", m, ok)
	}
	if _, ok := MonthNumber("notamonth"); ok {
		t.Error("MonthNumber(notamonth) should not resolve")
	}
}

func TestHebrewMonthLabel(t *testing.T) {
	if got := HebrewMonthLabel(time.December); got != "דצמבר" {
		t.Errorf("HebrewMonthLabel(December) = %q", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2024, 2); got != 29 {
		t.Errorf("DaysInMonth(2024, 2) = %d, want 29", got)
	}
	if got := DaysInMonth(2023, 2); got != 28 {
		t.Errorf("DaysInMonth(2023, 2) = %d, want 28", got)
	}
}
