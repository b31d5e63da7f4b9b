package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthNames maps Hebrew and English month names (and common abbreviations)
// to month numbers.
var monthNames = map[string]int{
	"ינואר":   1,
	"פברואר":  2,
	"מרץ":     3,
	"מרס":     3,
	"אפריל":   4,
	"מאי":     5,
	"יוני":    6,
	"יולי":    7,
	"אוגוסט":  8,
	"ספטמבר":  9,
	"ספטמבער": 9,
	"אוקטובר": 10,
	"נובמבר":  11,
	"דצמבר":   12,

	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// hebrewMonthLabels maps month numbers to Hebrew display names for period
// labels.
var hebrewMonthLabels = map[int]string{
	1: "ינואר", 2: "פברואר", 3: "מרץ", 4: "אפריל",
	5: "מאי", 6: "יוני", 7: "יולי", 8: "אוגוסט",
	9: "ספטמבר", 10: "אוקטובר", 11: "נובמבר", 12: "דצמבר",
}

// MonthNumber resolves a Hebrew or English month name. The boolean reports
// whether the name was recognized.
func MonthNumber(name string) (int, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// HebrewMonthLabel returns the Hebrew display name for a month, falling back
// to the English name for out-of-table values.
func HebrewMonthLabel(month time.Month) string {
	if label, ok := hebrewMonthLabels[int(month)]; ok {
		return label
	}
	return month.String()
}

var (
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})-(\d{4})$`)
	ymdRe       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dmy4Re      = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	dmy2Re      = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2})$`)
	dMonYRe     = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3,9})-(\d{2,4})$`)
)

// NormalizeDateToken parses a date-shaped token into YYYY-MM-DD form.
// Accepted shapes: YYYY-MM-DD, DD-MM-YYYY (2- or 4-digit year, with an
// MM-DD-YYYY retry when the day position exceeds 12), DD-Mon-YYYY, bare
// YYYY-MM / MM-YYYY, and "month-name year". Any of \ / . , count as a
// separator. defaultDay (0 means 1) supplies the day for month-granularity
// tokens, clamped to that month's length. The boolean reports success.
func NormalizeDateToken(token string, defaultDay int) (string, bool) {
	candidate := strings.TrimSpace(token)
	if candidate == "" {
		return "", false
	}
	replacer := strings.NewReplacer(`\`, "-", "/", "-", ".", "-", ",", "-")
	candidate = replacer.Replace(candidate)

	if m := ymdRe.FindStringSubmatch(candidate); m != nil {
		return formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dmy4Re.FindStringSubmatch(candidate); m != nil {
		if out, ok := formatDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return out, true
		}
		// Month-first rendering (e.g. US-style exports).
		return formatDate(atoi(m[3]), atoi(m[1]), atoi(m[2]))
	}
	if m := dmy2Re.FindStringSubmatch(candidate); m != nil {
		return formatDate(2000+atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := dMonYRe.FindStringSubmatch(candidate); m != nil {
		month, ok := MonthNumber(m[2])
		if !ok {
			return "", false
		}
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return formatDate(year, month, atoi(m[1]))
	}
	if m := yearMonthRe.FindStringSubmatch(candidate); m != nil {
		return monthDate(atoi(m[1]), atoi(m[2]), defaultDay)
	}
	if m := monthYearRe.FindStringSubmatch(candidate); m != nil {
		return monthDate(atoi(m[2]), atoi(m[1]), defaultDay)
	}
	parts := strings.Fields(strings.ToLower(candidate))
	if len(parts) == 2 && isAllDigits(parts[1]) {
		if month, ok := MonthNumber(parts[0]); ok {
			return monthDate(atoi(parts[1]), month, defaultDay)
		}
	}
	return "", false
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthDate(year, month, defaultDay int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	day := defaultDay
	if day <= 0 {
		day = 1
	}
	if max := DaysInMonth(year, month); day > max {
		day = max
	}
	return formatDate(year, month, day)
}

func formatDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, month) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
