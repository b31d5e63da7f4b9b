package parse

import (
	"math"
	"regexp"
	"strings"

	"invreport/internal/textutil"
)

// Totals is the outcome of total/VAT inference for one document.
type Totals struct {
	Total           *float64
	VAT             *float64
	VATRate         *float64
	BaseBeforeVAT   *float64
	Municipal       bool
	BreakdownSum    *float64
	BreakdownValues []float64
}

var numericTokenRe = regexp.MustCompile(`[\d.,]+`)

// numericCandidate is a numeric token found on a line, with a flag for
// percent signs in its immediate neighborhood (VAT-rate literals must not be
// mistaken for amounts).
type numericCandidate struct {
	token     string
	isPercent bool
}

func numericCandidates(line string) []numericCandidate {
	var out []numericCandidate
	for _, loc := range numericTokenRe.FindAllStringIndex(line, -1) {
		start, end := loc[0], loc[1]
		before := line[maxInt(0, start-2):start]
		afterEnd := minInt(len(line), end+2)
		after := line[end:afterEnd]
		out = append(out, numericCandidate{
			token:     line[start:end],
			isPercent: strings.Contains(before, "%") || strings.Contains(after, "%"),
		})
	}
	return out
}

// numericValuesNearMarker collects all non-percent numeric values on the
// first marker line and within a window of surrounding lines.
func numericValuesNearMarker(lines []string, marker string, window int) []float64 {
	var values []float64
	collect := func(line string) {
		for _, c := range numericCandidates(line) {
			if c.isPercent {
				continue
			}
			if amount, ok := textutil.ParseNumber(c.token); ok {
				values = append(values, amount)
			}
		}
	}
	for idx, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}
		collect(line)
		for offset := 1; offset <= window; offset++ {
			for _, pos := range []int{idx - offset, idx + offset} {
				if pos >= 0 && pos < len(lines) {
					collect(lines[pos])
				}
			}
		}
		break
	}
	return values
}

var blockValueRe = regexp.MustCompile(`^-?\d[\d,]*(?:\.\d+)?$`)

// sumNumericBlock sums well-formed signed numeric lines between the first
// start marker and the first end marker. Returns the ordered contributing
// values; the boolean reports whether any value was found.
func sumNumericBlock(lines []string, startMarkers, endMarkers []string) (float64, []float64, bool) {
	collecting := false
	total := 0.0
	found := false
	var values []float64
	for _, line := range lines {
		if !collecting {
			if containsAny(line, startMarkers) {
				collecting = true
			}
			continue
		}
		if containsAny(line, endMarkers) {
			break
		}
		token := strings.TrimSpace(line)
		if !blockValueRe.MatchString(token) {
			continue
		}
		if val, ok := textutil.ParseNumber(token); ok {
			total += val
			values = append(values, val)
			found = true
		}
	}
	return total, values, found
}

// findAmountBeforeMarker finds an amount associated with a labeled line:
// inline non-percent tokens first (any inline percent sign disables the
// inline search entirely), then up to three lines back, then up to three
// lines ahead. preferInline restricts the search to the label line itself.
// Tokens are offered right-to-left so trailing amounts win selection.
func findAmountBeforeMarker(lines []string, marker string, preferInline bool) (float64, bool) {
	selectReversed := func(tokens []string) (float64, bool) {
		if len(tokens) == 0 {
			return 0, false
		}
		reversed := make([]string, len(tokens))
		for i, tok := range tokens {
			reversed[len(tokens)-1-i] = tok
		}
		return textutil.SelectAmount(reversed)
	}
	pickTokens := func(candidates []numericCandidate) []string {
		var preferred, all []string
		for _, c := range candidates {
			all = append(all, c.token)
			if !c.isPercent {
				preferred = append(preferred, c.token)
			}
		}
		if len(preferred) > 0 {
			return preferred
		}
		return all
	}

	for idx, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}
		tokens := pickTokens(numericCandidates(line))
		if strings.Contains(line, "%") {
			tokens = nil
		}
		if amount, ok := selectReversed(tokens); ok {
			return amount, true
		}
		if preferInline {
			continue
		}
		for lookback := 1; lookback <= 3; lookback++ {
			if idx-lookback < 0 {
				break
			}
			candidate := lines[idx-lookback]
			// Date-bearing lines without a currency symbol are noise.
			if strings.Contains(candidate, "/") && !strings.Contains(candidate, "₪") {
				continue
			}
			if amount, ok := selectReversed(pickTokens(numericCandidates(candidate))); ok {
				return amount, true
			}
		}
		for lookahead := 1; lookahead <= 3; lookahead++ {
			if idx+lookahead >= len(lines) {
				break
			}
			if amount, ok := selectReversed(pickTokens(numericCandidates(lines[idx+lookahead]))); ok {
				return amount, true
			}
		}
		break
	}
	return 0, false
}

// amountNearMarkers scans a character window around each regex match and
// picks an amount, preferring separator-bearing tokens, then the max (or
// min) of the pool.
func amountNearMarkers(text string, patterns []*regexp.Regexp, window int, preferMin bool) (float64, bool) {
	choose := func(tokens []string) (float64, bool) {
		var pool []float64
		var decimals []float64
		for _, tok := range tokens {
			amount, ok := textutil.ParseNumber(tok)
			if !ok || amount <= 0 {
				continue
			}
			pool = append(pool, amount)
			if strings.Contains(tok, ".") || strings.Contains(tok, ",") {
				decimals = append(decimals, amount)
			}
		}
		if len(decimals) > 0 {
			pool = decimals
		}
		if len(pool) == 0 {
			return 0, false
		}
		best := pool[0]
		for _, v := range pool[1:] {
			if (preferMin && v < best) || (!preferMin && v > best) {
				best = v
			}
		}
		return best, true
	}

	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			tailEnd := minInt(len(text), loc[1]+window)
			headStart := maxInt(0, loc[0]-window)
			tokens := numericTokenRe.FindAllString(text[loc[1]:tailEnd], -1)
			tokens = append(tokens, numericTokenRe.FindAllString(text[headStart:loc[0]], -1)...)
			if amount, ok := choose(tokens); ok {
				return amount, true
			}
		}
	}
	return 0, false
}

// vatRateEstimate derives the implied VAT percentage from a total and a VAT
// amount.
func vatRateEstimate(total, vat *float64) *float64 {
	if total == nil || vat == nil || *total == 0 {
		return nil
	}
	base := *total - *vat
	if base <= 0 {
		return nil
	}
	rate := round2((*vat / base) * 100)
	return &rate
}

var vatRatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([\d.,]+)\s*%[^\n]{0,15}?מ"?עמ`),
	regexp.MustCompile(`מ"?עמ[^%\d]{0,15}?([\d.,]+)\s*%`),
	regexp.MustCompile(`(?i)VAT[^%\d]{0,15}?([\d.,]+)\s*%`),
}

// extractVATRate finds an explicit VAT percentage literal ("18% VAT"); the
// explicit rate is reported even when the amount was derived another way.
func extractVATRate(text string) *float64 {
	if text == "" {
		return nil
	}
	for _, pattern := range vatRatePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if value, ok := textutil.ParseNumber(m[1]); ok {
				rounded := round2(value)
				return &rounded
			}
		}
	}
	return nil
}

// Total-inference fallback regexes, including reversed-script variants.
var (
	totalInlineRe   = regexp.MustCompile(`סה.?"?כ.?[:\-]?\s*([\d.,]+)`)
	totalPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`סה.?"?כ.? ?לתשלום[^\d]*([\d.,]+)`),
		regexp.MustCompile(`([\d.,]+)\s+סה.?"?כ.? ?לתשלום`),
		regexp.MustCompile(`(?s)סה.?"?כ.? ?לתשלום.{0,40}?([\d.,]+)`),
		regexp.MustCompile(`כ.?"?הס[^\n]{0,40}?םולשתל[^\n]{0,40}?ח.?"?ש[^\n]{0,40}?מ"?עמ[^\d]*([\d.,]+)`),
		regexp.MustCompile(`([\d.,]+)\s+מ"?עמ[^\n]{0,40}?ח.?"?ש[^\n]{0,40}?םולשתל[^\n]{0,40}?כ.?"?הס`),
	}
	totalNearMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`סה.?"?כ.? ?לתשלום`),
		regexp.MustCompile(`כ.?"?הס[^\n]{0,40}?םולשתל[^\n]{0,40}?מ"?עמ`),
		regexp.MustCompile(`ח.?"?ש[^\n]{0,20}?םולשתל`),
	}
	collectTotalColonRe = regexp.MustCompile(`(?i)סה.?"?כ.? ?יגבה[^:]*:\s*([0-9,.\s]+?)(?:\n|$)`)
	collectTotalBlockRe = regexp.MustCompile(`(?i)סה[^\n]{0,4}?יגבה[^:]*:\s*((?s:.*?))\n\s*4`)
	collectTotalBareRe  = regexp.MustCompile(`סה.?"?כ.? ?יגבה[^0-9]+([\d.,]+)`)
	currencyTotalRe     = regexp.MustCompile(`₪\s*([\d.,]+)\s*[:\-]?\s*כ["״']?הס`)
	currencyTokenRe     = regexp.MustCompile(`₪\s*([\d.,]+)`)
	nonNumericRe        = regexp.MustCompile(`[^0-9.,]`)
	whitespaceRe        = regexp.MustCompile(`\s+`)

	vatPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`סה.?"?כ.? ?מע"?מ[^\d]*([\d.,]+)`),
		regexp.MustCompile(`([\d.,]+)\s+סה.?"?כ.? ?מע"?מ`),
		regexp.MustCompile(`מ"?עמ[^\n]{0,30}?כ.?"?הס[^\d]*([\d.,]+)`),
		regexp.MustCompile(`([\d.,]+)\s+כ.?"?הס[^\n]{0,30}?מ"?עמ`),
	}
	vatNearMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`סה.?"?כ.? ?מע"?מ`),
		regexp.MustCompile(`מ"?עמ[^\n]{0,30}?כ.?"?הס`),
	}
)

// Breakdown block markers. Start/end markers differ from the ones used for
// total inference: this block is the itemized amount section.
var (
	breakdownStartMarkers = []string{`ח"שב`, "חשב כ"}
	breakdownEndMarkers   = []string{"סכנה", "סה", `סה"`, "סה''כ יגבה", `סה"כ יגבה`}
)

// inferTotals runs the total/VAT/base cascade over the reconstructed lines
// and raw text. primaryLines is the primary backend's line view; the
// breakdown block is always summed from it, because the glyph backend
// scatters the itemized section.
func (p *Parser) inferTotals(lines []string, text string, primaryLines []string) Totals {
	// "Collect block": after a generic total marker, accumulate up to 16
	// consecutive numeric lines; keep the run with >= 3 numbers or the
	// highest single value.
	numbersAfterMarker := func(marker string, limit int) (best []float64, aggregated []float64) {
		bestLen := 0
		bestMax := math.Inf(-1)
		haveBest := false
		for idx, line := range lines {
			if !strings.Contains(line, marker) {
				continue
			}
			var collected []float64
			for offset := 1; offset <= limit; offset++ {
				pos := idx + offset
				if pos >= len(lines) {
					break
				}
				token := lines[pos]
				if !strings.Contains(token, ".") && !strings.Contains(token, ",") &&
					!strings.Contains(token, "₪") {
					if len(collected) > 0 {
						break
					}
					continue
				}
				value, ok := textutil.ParseNumber(token)
				if !ok {
					if len(collected) > 0 {
						break
					}
					continue
				}
				collected = append(collected, value)
			}
			if len(collected) == 0 {
				continue
			}
			aggregated = append(aggregated, collected...)
			colMax := maxFloat(collected)
			size := len(collected)
			switch {
			case !haveBest,
				size >= 3 && bestLen < 3,
				size >= 3 && bestLen >= 3 && colMax > bestMax,
				bestLen < 3 && size < 3 && colMax > bestMax:
				best = collected
				bestLen = size
				bestMax = colMax
				haveBest = true
			}
		}
		return best, aggregated
	}

	totalBlock, totalValues := numbersAfterMarker(`כ"הס`, 16)
	blockAlt, valuesAlt := numbersAfterMarker(`סה"כ`, 16)
	if len(blockAlt) > 0 && (len(totalBlock) == 0 || maxFloat(blockAlt) > maxFloat(totalBlock)) {
		totalBlock = blockAlt
	}
	totalValues = append(totalValues, valuesAlt...)

	var total, vat, base *float64

	// Tier 1-2: strict "total to pay" labels, inline then neighborhood.
	for _, marker := range []string{`םלוש כ"הס`, `םולשתל כ"הס`, "םולשתל"} {
		if amount, ok := findAmountBeforeMarker(lines, marker, true); ok {
			total = &amount
			break
		}
	}
	if amount, ok := findAmountBeforeMarker(lines, `מ"עמ ינפל`, true); ok {
		base = &amount
	}
	baseCandidates := numericValuesNearMarker(lines, `מ"עמ ינפל`, 4)
	if amount, ok := findAmountBeforeMarker(lines, `לע מ"עמ`, false); ok {
		vat = &amount
	} else if amount, ok := findAmountBeforeMarker(lines, `מ"עמ `, false); ok {
		vat = &amount
	}
	vatCandidates := numericValuesNearMarker(lines, `לע מ"עמ`, 4)
	explicitRate := extractVATRate(text)
	p.log.Debug().
		Interface("total", total).Interface("base", base).Interface("vat", vat).
		Floats64("base_candidates", baseCandidates).
		Floats64("vat_candidates", vatCandidates).
		Msg("Initial totals pass")

	// Tier 3: generic total label variants over lines.
	if total == nil {
		for _, marker := range []string{`סה"כ`, "סה״כ", "סהכ", `סה"כ לתשלום`, `סה"כ לתשלום בש"ח`} {
			if amount, ok := findAmountBeforeMarker(lines, marker, false); ok {
				total = &amount
				break
			}
		}
	}
	// Tier 4: direct regex patterns over raw text, reversed variants
	// included.
	if total == nil {
		if m := totalInlineRe.FindStringSubmatch(text); m != nil {
			if amount, ok := textutil.ParseNumber(m[1]); ok {
				total = &amount
			}
		}
	}
	if total == nil {
		for _, pattern := range totalPatternRes {
			if m := pattern.FindStringSubmatch(text); m != nil {
				if amount, ok := textutil.ParseNumber(m[1]); ok {
					total = &amount
					break
				}
			}
		}
	}
	if total == nil {
		if amount, ok := amountNearMarkers(text, totalNearMarkerRes, 120, false); ok {
			total = &amount
		}
	}
	// Municipal "total collected" label with a colon-separated value.
	if total == nil {
		if m := collectTotalColonRe.FindStringSubmatch(text); m != nil {
			token := whitespaceRe.ReplaceAllString(m[1], "")
			if amount, ok := textutil.ParseNumber(token); ok {
				total = &amount
			}
		}
	}
	if total == nil || *total <= 5 {
		if m := collectTotalBlockRe.FindStringSubmatch(text); m != nil {
			block := m[1]
			token := nonNumericRe.ReplaceAllString(block, "")
			var blockTotal *float64
			if amount, ok := textutil.ParseNumber(token); ok {
				blockTotal = &amount
			}
			if (blockTotal == nil || *blockTotal < 50 || strings.Contains(block, "\n")) && token != "" {
				if alt, ok := textutil.ParseNumber(reverseASCII(token)); ok {
					blockTotal = &alt
				}
			}
			if blockTotal != nil {
				total = blockTotal
			}
		}
	}
	if total == nil {
		if m := collectTotalBareRe.FindStringSubmatch(text); m != nil {
			if amount, ok := textutil.ParseNumber(m[1]); ok {
				total = &amount
			}
		}
	}
	// Tier 5: a larger collect-block run overrides earlier, smaller
	// matches.
	if len(totalBlock) > 0 {
		if blockMax := maxFloat(totalBlock); blockMax > 0 {
			total = &blockMax
		}
	}
	if total == nil {
		var amounts []float64
		for _, m := range currencyTotalRe.FindAllStringSubmatch(text, -1) {
			if amount, ok := textutil.ParseNumber(m[1]); ok {
				amounts = append(amounts, amount)
			}
		}
		if len(amounts) > 0 {
			amount := maxFloat(amounts)
			total = &amount
		}
	}
	// Tier 6: currency-symbol-anchored tokens as last resort.
	var currencyTokens []string
	for _, m := range currencyTokenRe.FindAllStringSubmatch(text, -1) {
		currencyTokens = append(currencyTokens, m[1])
	}
	if total == nil {
		if amount, ok := textutil.SelectAmount(reverseStrings(currencyTokens)); ok {
			total = &amount
		}
	}
	if total != nil && *total <= 5 {
		if fallback, ok := textutil.SelectAmount(reverseStrings(currencyTokens)); ok && fallback > *total {
			total = &fallback
		}
	}

	// Base refinement: among the values near the pre-VAT label, prefer
	// those below the total.
	if len(baseCandidates) > 0 {
		candidates := baseCandidates
		if total != nil {
			var below []float64
			for _, v := range candidates {
				if v < *total {
					below = append(below, v)
				}
			}
			if len(below) > 0 {
				candidates = below
			}
		}
		amount := maxFloat(candidates)
		base = &amount
	}
	if base == nil && total != nil && len(totalValues) > 0 && *total > 0 {
		approxBase := *total / (1 + p.rules.StandardVATRate/100)
		var bestVal float64
		bestDiff := math.Inf(1)
		for _, v := range totalValues {
			if v <= 0 || v >= *total {
				continue
			}
			if diff := math.Abs(v - approxBase); diff < bestDiff {
				bestDiff = diff
				bestVal = v
			}
		}
		if !math.IsInf(bestDiff, 1) {
			base = &bestVal
		}
	}

	// VAT inference mirrors total inference with its own label set.
	if vat == nil {
		for _, pattern := range vatPatternRes {
			if m := pattern.FindStringSubmatch(text); m != nil {
				if amount, ok := textutil.ParseNumber(m[1]); ok {
					vat = &amount
					break
				}
			}
		}
	}
	if vat == nil {
		if amount, ok := amountNearMarkers(text, vatNearMarkerRes, 120, true); ok {
			vat = &amount
		}
	}
	if vat == nil {
		for _, line := range lines {
			if !strings.Contains(line, `מ"עמ`) {
				continue
			}
			// "towards VAT" phrasing without an amount on it is noise.
			if strings.Contains(line, `מ"עמל`) && !strings.Contains(line, "₪") &&
				!strings.Contains(line, "%") {
				continue
			}
			tokens := numericTokenRe.FindAllString(line, -1)
			if amount, ok := textutil.SelectAmount(reverseStrings(tokens)); ok {
				vat = &amount
				break
			}
		}
	}

	// Cross-check: prefer a near-marker VAT candidate whose implied rate
	// sits within a point of the statutory rate.
	if total != nil && len(vatCandidates) > 0 {
		var filtered []float64
		for _, v := range vatCandidates {
			if v > 0 && v < *total {
				filtered = append(filtered, v)
			}
		}
		sortFloats(filtered)
		var replacement *float64
		for i := range filtered {
			rate := vatRateEstimate(total, &filtered[i])
			if rate == nil || math.Abs(*rate-p.rules.StandardVATRate) < 1.0 {
				replacement = &filtered[i]
				break
			}
		}
		if replacement == nil && len(filtered) > 0 {
			replacement = &filtered[0]
		}
		if replacement != nil {
			vat = replacement
		}
	}

	if vat == nil && total != nil && base != nil {
		if candidate := round2(*total - *base); candidate >= 0 {
			vat = &candidate
		}
	}
	// VAT exceeding the total means a unit/parsing confusion; discard and
	// re-derive.
	if vat != nil && total != nil && *vat > *total {
		vat = nil
	}
	if vat == nil {
		if amount, ok := amountNearMarkers(text, vatNearMarkerRes, 120, true); ok {
			vat = &amount
		}
	}
	if vat == nil && total != nil && base != nil && *base < *total {
		if candidate := round2(*total - *base); candidate >= 0 {
			vat = &candidate
		}
	}

	var currencyAmounts []float64
	if total != nil || vat != nil {
		for _, token := range currencyTokens {
			if amount, ok := textutil.ParseNumber(token); ok {
				currencyAmounts = append(currencyAmounts, amount)
			}
		}
	}
	if total != nil {
		var smaller []float64
		for _, amt := range currencyAmounts {
			if amt < *total {
				smaller = append(smaller, amt)
			}
		}
		if len(smaller) > 0 {
			candidate := round2(*total - maxFloat(smaller))
			if vat == nil {
				if candidate >= 0 {
					vat = &candidate
				}
			} else if candidate > 0 && candidate < *vat {
				vat = &candidate
			}
		}
	}

	// Rate sanity: a valid base plus an implausible implied rate means the
	// label match was wrong; trust total-base instead.
	if rate := vatRateEstimate(total, vat); rate != nil && total != nil && base != nil &&
		*base < *total && math.Abs(*rate-p.rules.StandardVATRate) > 1.0 {
		if recalculated := round2(*total - *base); recalculated >= 0 {
			vat = &recalculated
			p.log.Debug().Float64("vat", recalculated).Msg("VAT replaced via base difference")
		}
	}

	municipal := containsAny(text, p.rules.MunicipalMarkers)
	if !municipal && containsAny(text, p.rules.CityKeywords) &&
		strings.Contains(text, p.rules.DebtMarker) {
		municipal = true
	}

	blockSource := primaryLines
	if len(blockSource) == 0 {
		blockSource = lines
	}
	blockSum, breakdownValues, blockFound := sumNumericBlock(blockSource, breakdownStartMarkers, breakdownEndMarkers)

	result := Totals{
		Total:           total,
		VAT:             vat,
		BaseBeforeVAT:   base,
		Municipal:       municipal,
		BreakdownValues: breakdownValues,
	}
	if blockFound {
		result.BreakdownSum = &blockSum
	}
	if municipal {
		if blockFound && (total == nil || *total < 50 || math.Abs(*total-blockSum) > 1.0) {
			replaced := blockSum
			result.Total = &replaced
			p.log.Debug().Float64("total", blockSum).Msg("Municipal total derived from block sum")
		}
		zero := 0.0
		result.VAT = &zero
	}
	if explicitRate != nil {
		result.VATRate = explicitRate
	} else {
		result.VATRate = vatRateEstimate(result.Total, result.VAT)
	}
	return result
}

// --- numeric helpers --------------------------------------------------------

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func maxFloat(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}

func sortFloats(values []float64) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func reverseASCII(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
