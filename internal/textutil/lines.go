package textutil

import (
	"regexp"
	"strings"
)

var basicNumberRe = regexp.MustCompile(`^-?\d+$`)

// ExtractLines normalizes raw extracted text into an ordered sequence of
// trimmed, non-empty lines, repairing decimal numbers that the extraction
// layer split across adjacent lines. Right-to-left layouts cause the
// fractional part to be emitted after the integer part, so a lone "." line
// between two integer lines merges to "<next>.<previous>", and a trailing
// "." on an integer line fuses with the nearest integer-only neighbor.
//
// The pass is idempotent: applying it to its own output changes nothing.
func ExtractLines(text string) []string {
	cleaned := strings.ReplaceAll(text, "\r", "\n")
	var raw []string
	for _, ln := range strings.Split(cleaned, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			raw = append(raw, ln)
		}
	}

	var merged []string
	for i := 0; i < len(raw); {
		line := raw[i]
		if line == "." && len(merged) > 0 && i+1 < len(raw) {
			prev := merged[len(merged)-1]
			merged = merged[:len(merged)-1]
			next := raw[i+1]
			if isBasicNumber(prev) && isBasicNumber(next) {
				merged = append(merged, next+"."+prev)
				i += 2
				continue
			}
			merged = append(merged, prev)
		} else if strings.HasSuffix(line, ".") && line != "." && strings.Count(line, ".") == 1 {
			body := line[:len(line)-1]
			if isBasicNumber(body) {
				if len(merged) > 0 && isBasicNumber(merged[len(merged)-1]) {
					merged[len(merged)-1] = merged[len(merged)-1] + "." + body
					i++
					continue
				}
				if i+1 < len(raw) && isBasicNumber(raw[i+1]) {
					merged = append(merged, raw[i+1]+"."+body)
					i += 2
					continue
				}
			}
		}
		merged = append(merged, line)
		i++
	}

	out := merged[:0]
	for _, ln := range merged {
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func isBasicNumber(token string) bool {
	return basicNumberRe.MatchString(token)
}
