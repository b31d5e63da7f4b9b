// Package textutil provides pure text-normalization helpers shared by the
// field extractors: line reconstruction, numeric token normalization, and
// date token parsing. All functions are side-effect free.
package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// reversedThousandsRe matches "digits '.' exactly-three-digits", the shape a
// thousands separator takes when a right-to-left layout engine emits the
// digit groups in reversed order.
var reversedThousandsRe = regexp.MustCompile(`^\d+\.\d{3}$`)

// NormalizeAmountToken converts an ambiguous numeric token into a canonical
// decimal string. It preserves a leading sign, strips everything but digits
// and separators, repairs reversed thousands-separator artifacts, and
// resolves comma/dot ambiguity (comma as thousands separator when a dot is
// present or when repeated; comma as decimal point when it is the only
// separator). Returns "" when nothing numeric remains.
func NormalizeAmountToken(raw string) string {
	if raw == "" {
		return ""
	}
	sign := ""
	if strings.HasPrefix(strings.TrimSpace(raw), "-") {
		sign = "-"
	}
	var b strings.Builder
	for _, ch := range raw {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == ',' {
			b.WriteRune(ch)
		}
	}
	token := b.String()
	if token == "" {
		return ""
	}
	if reversedThousandsRe.MatchString(token) {
		dot := strings.IndexByte(token, '.')
		head, tail := token[:dot], token[dot+1:]
		if len(head) <= 2 {
			token = tail + "." + head
		} else {
			token = reverseString(token)
		}
	}
	switch {
	case strings.Contains(token, ",") && strings.Contains(token, "."):
		token = strings.ReplaceAll(token, ",", "")
	case strings.Count(token, ",") > 1:
		token = strings.ReplaceAll(token, ",", "")
	case strings.Count(token, ",") == 1 && !strings.Contains(token, "."):
		token = strings.Replace(token, ",", ".", 1)
	}
	return sign + token
}

// ParseNumber normalizes a raw token and parses it as a float. The boolean
// reports whether a usable number was found.
func ParseNumber(raw string) (float64, bool) {
	token := NormalizeAmountToken(raw)
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SelectAmount picks the most currency-like amount from a list of raw
// tokens. Four-digit tokens starting with "20" are discarded as calendar
// years. Candidates with exactly two decimal digits win, then any candidate
// with a decimal point, then any candidate >= 10, then the first candidate.
func SelectAmount(tokens []string) (float64, bool) {
	type candidate struct {
		amount     float64
		normalized string
	}
	var candidates []candidate
	for _, token := range tokens {
		normalized := NormalizeAmountToken(token)
		if normalized == "" {
			continue
		}
		if len(normalized) == 4 && isAllDigits(normalized) && strings.HasPrefix(normalized, "20") {
			continue
		}
		amount, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{amount, normalized})
	}
	if len(candidates) == 0 {
		return 0, false
	}
	for _, c := range candidates {
		if dot := strings.LastIndexByte(c.normalized, '.'); dot >= 0 && len(c.normalized)-dot-1 == 2 {
			return c.amount, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(c.normalized, ".") {
			return c.amount, true
		}
	}
	for _, c := range candidates {
		if c.amount >= 10 {
			return c.amount, true
		}
	}
	return candidates[0].amount, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func reverseString(s string) string {
	b := []byte(s) // tokens here are ASCII digits and separators
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
