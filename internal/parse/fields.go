package parse

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"invreport/internal/textutil"
)

// searchPatterns returns the first capture group of the first pattern that
// matches, or "".
func searchPatterns(patterns []*regexp.Regexp, text string) string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// --- Invoice ID -------------------------------------------------------------

var (
	idPeriodicAccountRe = regexp.MustCompile(`מס.?['׳]?\s+חשבון\s+תקופתי[:\s-]*([\d-]{6,})`)
	idPeriodProximityRe = regexp.MustCompile(`([\d-]{6,})[\s\S]{0,80}?:?יתפוקת`)
	nonDigitRe          = regexp.MustCompile(`\D`)
	digitRunRe          = regexp.MustCompile(`\d[\d/-]*`)
	longDigitTokenRe    = regexp.MustCompile(`\b\d{8,12}\b`)
)

// idPatternDefs are label-anchored invoice-number patterns with their
// priority tier (lower wins). Reversed forms cover right-to-left output.
var idPatternDefs = []struct {
	re       *regexp.Regexp
	priority int
}{
	{regexp.MustCompile(`חשבונית(?:\s+מס)?(?:\s+קבלה)?\s*(?:מספר|No\.?)\s*[:\-]?\s*(\d+)`), 0},
	{regexp.MustCompile(`(\d{4,})\s*רפסמ\s*תינובשח`), 0},
	{regexp.MustCompile(`(\d{4,})\s*רפסמ\s*קיתב\s*מ"עמ`), 1},
	{regexp.MustCompile(`(\d{4,})\s+רפסמ`), 2},
	{regexp.MustCompile(`מספר\s+(\d{4,})`), 2},
	{regexp.MustCompile(`מס.?['׳]?\s*מסלקה/שובר/ספח[:\s]+(\d{4,})`), 0},
	{regexp.MustCompile(`מסלקה/שובר/ספח[:\s]+(\d{4,})`), 1},
}

// inferInvoiceID applies the invoice-number cascade: periodic-account marker,
// period-proximity marker, labeled number patterns, a digit run adjacent to a
// generic "number" marker line, then bare 8-12 digit tokens (first 60 lines,
// then anywhere). Candidates are deduplicated by digit string; the lowest
// tier wins, ties broken by longest then lexicographically smallest value.
func (p *Parser) inferInvoiceID(lines []string, text string) string {
	if text != "" {
		if m := idPeriodicAccountRe.FindStringSubmatch(text); m != nil {
			if cleaned := nonDigitRe.ReplaceAllString(m[1], ""); cleaned != "" {
				return cleaned
			}
		}
		if m := idPeriodProximityRe.FindStringSubmatch(text); m != nil {
			if cleaned := nonDigitRe.ReplaceAllString(m[1], ""); cleaned != "" {
				return cleaned
			}
		}
	}

	type idCandidate struct {
		priority int
		value    string
	}
	var candidates []idCandidate
	seen := make(map[string]int)
	add := func(value string, priority int) {
		val := strings.TrimSpace(value)
		if val == "" {
			return
		}
		if cleaned := nonDigitRe.ReplaceAllString(val, ""); cleaned != "" {
			val = cleaned
		}
		// Patterns are not tried in tier order, so a value seen again at a
		// better tier keeps the best one.
		if idx, ok := seen[val]; ok {
			if priority < candidates[idx].priority {
				candidates[idx].priority = priority
			}
			return
		}
		seen[val] = len(candidates)
		candidates = append(candidates, idCandidate{priority, val})
	}

	for _, def := range idPatternDefs {
		for _, m := range def.re.FindAllStringSubmatch(text, -1) {
			add(m[1], def.priority)
		}
	}

	if len(candidates) == 0 {
		for idx, line := range lines {
			if !strings.Contains(line, "רפסמ") {
				continue
			}
			digits := digitRunRe.FindAllString(line, -1)
			for _, val := range digits {
				add(val, 3)
			}
			if len(digits) == 0 && idx > 0 {
				for _, val := range digitRunRe.FindAllString(lines[idx-1], -1) {
					add(val, 3)
				}
			}
			break
		}
	}
	if len(candidates) == 0 {
		head := lines
		if len(head) > 60 {
			head = head[:60]
		}
		for _, line := range head {
			for _, token := range longDigitTokenRe.FindAllString(line, -1) {
				add(token, 5)
			}
		}
	}
	if len(candidates) == 0 && text != "" {
		for _, token := range longDigitTokenRe.FindAllString(text, -1) {
			add(token, 6)
		}
	}

	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		if len(candidates[i].value) != len(candidates[j].value) {
			return len(candidates[i].value) > len(candidates[j].value)
		}
		return candidates[i].value < candidates[j].value
	})
	return candidates[0].value
}

// --- Dates ------------------------------------------------------------------

var (
	invoiceDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*:ךיראת`),
		regexp.MustCompile(`תאריך\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(?i)Date\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`תאריך\s*הדפסה\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`),
	}
	anyDateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

	dueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Due Date|Payment Due|לתשלום עד|מועד תשלום|תאריך אחרון לתשלום)\D{0,15}([0-9./-]{6,10})`),
		regexp.MustCompile(`מועד אחרון[:\s]+([0-9./-]{6,10})`),
	}
)

// inferInvoiceDate finds the issue date via label-anchored patterns, falling
// back to the first date-shaped token anywhere in the text. The result is
// normalized to YYYY-MM-DD where the token parses; otherwise the raw token
// is kept.
func (p *Parser) inferInvoiceDate(text string) string {
	value := searchPatterns(invoiceDatePatterns, text)
	if value == "" {
		value = anyDateRe.FindString(text)
	}
	if value == "" {
		return ""
	}
	if normalized, ok := textutil.NormalizeDateToken(value, 0); ok {
		return normalized
	}
	return value
}

// inferDueDate finds a payment due date via its own label set.
func (p *Parser) inferDueDate(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range dueDatePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if normalized, ok := textutil.NormalizeDateToken(m[1], 0); ok {
				return normalized
			}
		}
	}
	return ""
}

// --- Vendor -----------------------------------------------------------------

var (
	municipalityNameRe = regexp.MustCompile(`ע[יר]יית\s+[^\n]{2,40}`)
	letterRe           = regexp.MustCompile(`[א-תA-Za-z]`)
)

// detectKnownVendor maps a marker substring to a canonical vendor name.
func (p *Parser) detectKnownVendor(text string) string {
	if text == "" {
		return ""
	}
	for _, v := range p.rules.KnownVendors {
		if strings.Contains(text, v.Marker) {
			return v.Display
		}
	}
	return ""
}

func (p *Parser) hasTransportMarker(text string) bool {
	if text == "" {
		return false
	}
	for _, marker := range p.rules.TransportMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	lowered := strings.ToLower(text)
	for _, marker := range p.rules.TransportLatinMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (p *Parser) looksLikeCityMunicipality(text string) bool {
	if text == "" {
		return false
	}
	if !containsAny(text, p.rules.CityKeywords) {
		return false
	}
	return containsAny(text, p.rules.CityMunicipalMarkers)
}

// inferInvoiceFrom resolves the issuing vendor: known-vendor markers win,
// then a municipal-authority name pattern, then the first line carrying a
// legal-entity suffix, then the first letter-bearing line in the document
// head that is not a URL, email, or bare number.
func (p *Parser) inferInvoiceFrom(lines []string, text string) string {
	candidate := ""
	for _, line := range lines {
		if strings.Contains(line, `מ"עב`) || strings.Contains(line, `בע"מ`) ||
			strings.Contains(line, "Ltd") || strings.Contains(line, "חברה") {
			candidate = line
			break
		}
	}
	if candidate == "" {
		head := lines
		if len(head) > 15 {
			head = head[:15]
		}
		for _, line := range head {
			if strings.Contains(line, "www") || strings.Contains(line, "@") ||
				strings.Contains(line, "cid:") {
				continue
			}
			if isDigits(line) {
				continue
			}
			if letterRe.MatchString(line) {
				candidate = line
				break
			}
		}
	}
	if vendor := p.detectKnownVendor(text); vendor != "" {
		return vendor
	}
	if text != "" {
		if m := municipalityNameRe.FindString(text); m != "" {
			return strings.ReplaceAll(strings.TrimSpace(m), "עריית", "עיריית")
		}
		if p.looksLikeCityMunicipality(text) {
			return p.rules.CityVendorName
		}
	}
	return candidate
}

// --- Description ------------------------------------------------------------

var (
	forStripPrefixRe   = regexp.MustCompile("^[\\d\\s'\"`.,-]+")
	forYearDescRe      = regexp.MustCompile(`מס-?\s*(\d{4})\s+([א-תA-Za-z\s"']{2,})`)
	telecomSegmentRe   = regexp.MustCompile(`(?s)פירוט\s+חיובים\s+וזיכויים\s+לתקופת\s+החשבון\s+(.*?)\s+סה"?כ\s+חיובי\s+החשבון`)
	telecomMobileRe    = regexp.MustCompile(`(\d+)מנויי\s*סלולר`)
	telecomTransmitRe  = regexp.MustCompile(`(\d+)מנוי\s*תמסורת\s*([\d-]+)`)
	telecomGeneralRe   = regexp.MustCompile(`תנועות\s+כלליות\s+בחשבון\s+הלקוח`)
	timeRangeRe        = regexp.MustCompile(`\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}`)
	telecomChargesLine = "פירוט חיובים וזיכויים לתקופת החשבון"
)

// normalizeInvoiceForValue cleans a candidate description line: strips
// leading punctuation and digits, requires at least one letter, reorders a
// "tax year + description" form, and collapses property-tax phrasings to
// canonical labels.
func normalizeInvoiceForValue(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `:"'`)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = forStripPrefixRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || !letterRe.MatchString(cleaned) {
		return ""
	}
	if m := forYearDescRe.FindStringSubmatch(cleaned); m != nil {
		if desc := strings.TrimSpace(m[2]); desc != "" {
			cleaned = desc + " " + m[1]
		}
	}
	if strings.Contains(cleaned, "ארנונה לעסקים") {
		return "ארנונה לעסקים"
	}
	if strings.Contains(cleaned, "ארנונה") {
		return "ארנונה"
	}
	return cleaned
}

// telecomBillingSummary aggregates the telecom provider's charge/credit
// detail section into one human-readable phrase (subscriber counts,
// transmission subscriptions, general account activity).
func (p *Parser) telecomBillingSummary(lines []string, rawText string) string {
	stopMarkers := []string{`סה"כ`, "סהכ", `כ"הס`}
	for idx, line := range lines {
		if !(strings.Contains(line, "פירוט") && strings.Contains(line, "חיובים") &&
			strings.Contains(line, "זיכויים") && strings.Contains(line, "החשבון")) {
			continue
		}
		var details []string
		for lookahead := 1; lookahead < 8; lookahead++ {
			pos := idx + lookahead
			if pos >= len(lines) {
				break
			}
			candidate := strings.TrimSpace(lines[pos])
			if candidate == "" {
				continue
			}
			if containsAny(candidate, stopMarkers) {
				break
			}
			if letterRe.MatchString(candidate) {
				details = append(details, candidate)
			}
			if len(details) >= 4 {
				break
			}
		}
		if len(details) > 0 {
			return strings.Join(details, " | ")
		}
		return telecomChargesLine
	}

	if rawText != "" {
		if m := telecomSegmentRe.FindStringSubmatch(rawText); m != nil {
			segment := m[1]
			var entries []string
			if mm := telecomMobileRe.FindStringSubmatch(segment); mm != nil {
				entries = append(entries, mm[1]+" מנויי סלולר")
			}
			if mm := telecomTransmitRe.FindStringSubmatch(segment); mm != nil {
				entries = append(entries, mm[1]+" מנוי תמסורת "+mm[2])
			}
			if telecomGeneralRe.MatchString(segment) {
				entries = append(entries, "תנועות כלליות בחשבון הלקוח")
			}
			if len(entries) > 0 {
				return strings.Join(entries, " | ")
			}
			return telecomChargesLine
		}
	}
	return ""
}

// inferInvoiceFor resolves the free-text description of what is billed.
// Public-transport and telecom-summary detectors take priority, then a
// reversed "details:" block, then a charge-breakdown label with filtered
// lookahead, then the first connector-phrase line, then a municipal-tax
// fallback.
func (p *Parser) inferInvoiceFor(lines []string, text string) string {
	if p.hasTransportMarker(text) {
		return p.rules.TransportDescription
	}
	if summary := p.telecomBillingSummary(lines, text); summary != "" {
		return summary
	}

	for idx, line := range lines {
		if line != ":םיטרפ" {
			continue
		}
		var collected []string
		for _, ln := range lines[idx+1:] {
			if containsAny(ln, []string{"טקמ", `כ"הס`, `סה"כ`, "כסה"}) {
				break
			}
			if len([]rune(ln)) > 2 {
				collected = append(collected, ln)
			}
		}
		if len(collected) > 0 {
			if len(collected) > 5 {
				collected = collected[:5]
			}
			return strings.Join(collected, " | ")
		}
		break
	}

	for idx, line := range lines {
		if !strings.Contains(line, "פירוט החיוב") && !strings.Contains(line, "פירוט החיובים") {
			continue
		}
		marker := "פירוט החיוב"
		if !strings.Contains(line, marker) {
			marker = "פירוט החיובים"
		}
		_, after, _ := strings.Cut(line, marker)
		if tail := normalizeInvoiceForValue(after); tail != "" && !strings.Contains(tail, "נכס") {
			return tail
		}
		skipMarkers := []string{`סה"כ`, "סהכ", "תיאור", "כתובת", "מס' זיהוי", "מספר זיהוי", "מס'"}
		for lookahead := 1; lookahead < 8; lookahead++ {
			if idx+lookahead >= len(lines) {
				break
			}
			rawLine := strings.TrimSpace(lines[idx+lookahead])
			if containsAny(rawLine, skipMarkers) {
				continue
			}
			if candidate := normalizeInvoiceForValue(rawLine); candidate != "" {
				return candidate
			}
		}
	}

	for _, line := range lines {
		if !strings.Contains(line, " עבור ") && !strings.Contains(line, " - ") {
			continue
		}
		if len([]rune(line)) >= 200 {
			continue
		}
		if timeRangeRe.MatchString(line) {
			continue
		}
		if normalized := normalizeInvoiceForValue(line); normalized != "" {
			return normalized
		}
		return line
	}

	if strings.Contains(text, "ארנונה לעסקים") {
		return "ארנונה לעסקים"
	}
	if strings.Contains(text, "ארנונה") {
		return "ארנונה"
	}
	return ""
}

// --- Billing period ---------------------------------------------------------

var (
	autopaySegmentRe = regexp.MustCompile(`((?:\d{2}/\d{2}/\d{4}).{0,40}?){2,}הוראת הקבע`)
	autopayDateRe    = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	dateRangeRe      = regexp.MustCompile(`(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\s*[-–]\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	bilingualRe      = regexp.MustCompile(`(\d{4})\s+([א-ת]+)\s*[-–]\s*([א-ת]+)`)
	monthYearLblRe   = regexp.MustCompile(`(?i)(?:תקופה|billing|statement|month|חודש)\D*([A-Za-zא-ת]+)\s+(\d{4})`)
)

// Period is an inferred billing period.
type Period struct {
	Start string
	End   string
	Label string
}

// inferPeriod detects the billing period: direct-debit date pairs near the
// standing-order marker (earliest pair normalized to month start, day before
// the latest date as period end), then an explicit date range, a bilingual
// "year monthA-monthB" form, and a "period: Month Year" label.
func (p *Parser) inferPeriod(text string) Period {
	if text == "" {
		return Period{}
	}
	if segment := autopaySegmentRe.FindString(text); segment != "" {
		tokens := autopayDateRe.FindAllString(segment, -1)
		var parsed []time.Time
		for _, token := range tokens {
			if normalized, ok := textutil.NormalizeDateToken(token, 0); ok {
				if t, err := time.Parse("2006-01-02", normalized); err == nil {
					parsed = append(parsed, t)
				}
			}
		}
		if len(parsed) >= 2 {
			sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
			start := parsed[0].AddDate(0, 0, 1-parsed[0].Day())
			end := parsed[len(parsed)-1].AddDate(0, 0, -1)
			if end.Before(start) {
				end = parsed[len(parsed)-1]
			}
			label := textutil.HebrewMonthLabel(start.Month()) + " - " + textutil.HebrewMonthLabel(end.Month())
			return Period{
				Start: start.Format("2006-01-02"),
				End:   end.Format("2006-01-02"),
				Label: label,
			}
		}
	}
	if m := dateRangeRe.FindStringSubmatch(text); m != nil {
		start, okStart := textutil.NormalizeDateToken(m[1], 0)
		end, okEnd := textutil.NormalizeDateToken(m[2], 0)
		period := Period{}
		if okStart {
			period.Start = start
		}
		if okEnd {
			period.End = end
		}
		if okStart && okEnd {
			period.Label = start + " - " + end
		}
		return period
	}
	if m := bilingualRe.FindStringSubmatch(text); m != nil {
		year := atoiSafe(m[1])
		monthA, okA := textutil.MonthNumber(m[2])
		monthB, okB := textutil.MonthNumber(m[3])
		if okA && okB {
			start := time.Date(year, time.Month(monthA), 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, time.Month(monthB), textutil.DaysInMonth(year, monthB), 0, 0, 0, 0, time.UTC)
			return Period{
				Start: start.Format("2006-01-02"),
				End:   end.Format("2006-01-02"),
				Label: m[3] + " - " + m[2],
			}
		}
	}
	if m := monthYearLblRe.FindStringSubmatch(text); m != nil {
		if month, ok := textutil.MonthNumber(m[1]); ok {
			year := atoiSafe(m[2])
			start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, time.Month(month), textutil.DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)
			return Period{
				Start: start.Format("2006-01-02"),
				End:   end.Format("2006-01-02"),
				Label: start.Format("2006-01") + " (" + m[1] + " " + m[2] + ")",
			}
		}
	}
	return Period{}
}

// --- Reference numbers ------------------------------------------------------

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:PO|P\.O\.|Purchase Order)[\s#:=-]*([A-Z0-9-]{4,})`),
	regexp.MustCompile(`מספר\s+(?:הזמנה|לקוח|חוזה|עסקה)[\s#:=-]*([0-9-]{4,})`),
	regexp.MustCompile(`(?i)(?:Customer ID|Account Number)[\s#:=-]*([A-Z0-9-]{4,})`),
}

// maxReferenceNumbers caps how many external references one record carries.
const maxReferenceNumbers = 5

// inferReferenceNumbers collects external reference identifiers in
// first-seen order, de-duplicated, capped at maxReferenceNumbers.
func (p *Parser) inferReferenceNumbers(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]bool)
	var ordered []string
	for _, pattern := range referencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			key := strings.TrimSpace(m[1])
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			ordered = append(ordered, key)
			if len(ordered) >= maxReferenceNumbers {
				return ordered
			}
		}
	}
	return ordered
}

// --- small helpers ----------------------------------------------------------

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
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

func atoiSafe(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return n
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
