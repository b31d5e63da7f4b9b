package parse

import (
	"math"
	"strings"

	"invreport/internal/extract"
	"invreport/internal/logger"
	"invreport/internal/textutil"
	"invreport/pkg/models"
)

// Multi-unit municipal bills interleave several billing units (accounts,
// properties) page by page in one physical document. The splitter re-derives
// per-page data with word-position extraction: line-based text loses
// positional grouping across the multi-column municipal layout, so the
// "total due" amount must be anchored to its label by on-page proximity
// rather than by string search.

// splitRowTolerance is the vertical distance within which two words count as
// sharing a row.
const splitRowTolerance = 5.0

// Per-page anchors, in both script directions.
var (
	unitIDMarkers    = []string{"תקופתי", "יתפוקת"}
	unitTotalMarkers = []string{"לתשלום", "םולשתל"}
)

// pageUnit is the per-page data the splitter recovers for one billing unit.
type pageUnit struct {
	id              string
	description     string
	total           float64
	breakdownSum    *float64
	breakdownValues []float64
}

// SplitMultiUnit expands a municipal aggregate record into per-unit records
// when the document interleaves distinct billing units page by page. Every
// page must yield a distinct, non-empty unit ID and a positionally anchored
// total; any ambiguity aborts the split and keeps the aggregate record
// unchanged.
func (p *Parser) SplitMultiUnit(path string, parent *models.InvoiceRecord) ([]*models.InvoiceRecord, bool) {
	log := logger.WithFile(p.log, parent.SourceFile)
	pages, err := p.pages.PageWords(path)
	if err != nil {
		log.Debug().Err(err).Msg("Split skipped, word extraction failed")
		return nil, false
	}
	if len(pages) < 2 {
		return nil, false
	}
	texts, err := p.pages.PageTexts(path)
	if err != nil || len(texts) != len(pages) {
		log.Debug().Msg("Split skipped, page texts unavailable")
		return nil, false
	}

	units := make([]pageUnit, 0, len(pages))
	seen := make(map[string]bool)
	for i, words := range pages {
		unit, ok := p.pageUnitData(words, texts[i])
		if !ok {
			log.Debug().Int("page", i+1).
				Msg("Split aborted, page yielded no unit")
			return nil, false
		}
		if seen[unit.id] {
			log.Debug().Str("unit", unit.id).
				Msg("Split aborted, duplicate unit ID")
			return nil, false
		}
		seen[unit.id] = true
		units = append(units, unit)
	}
	if len(units) < 2 {
		return nil, false
	}

	records := make([]*models.InvoiceRecord, 0, len(units))
	for _, unit := range units {
		record := parent.Clone()
		record.InvoiceID = models.String(unit.id)
		if unit.description != "" {
			record.InvoiceFor = models.String(unit.description)
		}
		total := unit.total
		record.InvoiceTotal = &total
		record.BreakdownSum = unit.breakdownSum
		record.BreakdownValues = unit.breakdownValues
		record.Notes = nil
		if record.BreakdownSum != nil &&
			math.Abs(*record.BreakdownSum-*record.InvoiceTotal) > 1.0 {
			record.AppendNote("Total differs from breakdown sum")
		}
		record.ParseConfidence = models.Float(ComputeParseConfidence(record))
		records = append(records, record)
	}
	log.Info().Int("units", len(records)).
		Msg("Split multi-unit document")
	return records, true
}

// pageUnitData recovers one page's unit ID, description, anchored total, and
// page-scoped breakdown block.
func (p *Parser) pageUnitData(words []extract.Word, pageText string) (pageUnit, bool) {
	id := findUnitID(words)
	if id == "" {
		return pageUnit{}, false
	}
	total, ok := findAnchoredAmount(words, unitTotalMarkers)
	if !ok {
		return pageUnit{}, false
	}

	lines := textutil.ExtractLines(pageText)
	unit := pageUnit{
		id:          id,
		description: pageDescription(lines, pageText),
		total:       total,
	}
	if sum, values, found := sumNumericBlock(lines, breakdownStartMarkers, breakdownEndMarkers); found {
		unit.breakdownSum = &sum
		unit.breakdownValues = values
	}
	return unit, true
}

// findUnitID locates the periodic-account marker word and returns the
// nearest digit-run word on the same row, falling back to the nearest digit
// word anywhere on the page.
func findUnitID(words []extract.Word) string {
	anchor, ok := findMarkerWord(words, unitIDMarkers)
	if !ok {
		return ""
	}
	best := ""
	bestDist := math.Inf(1)
	consider := func(w extract.Word, dist float64) {
		digits := nonDigitRe.ReplaceAllString(w.Text, "")
		if len(digits) < 6 {
			return
		}
		if dist < bestDist {
			best = digits
			bestDist = dist
		}
	}
	for _, w := range words {
		if !sameRow(w, anchor) {
			continue
		}
		consider(w, math.Abs(w.X-anchor.X))
	}
	if best != "" {
		return best
	}
	for _, w := range words {
		consider(w, math.Hypot(w.X-anchor.X, w.Y-anchor.Y))
	}
	return best
}

// findAnchoredAmount locates a label word and returns the nearest parseable
// amount on the same row, preferring decimal-bearing tokens.
func findAnchoredAmount(words []extract.Word, markers []string) (float64, bool) {
	anchor, ok := findMarkerWord(words, markers)
	if !ok {
		return 0, false
	}
	var bestAmount, decimalAmount float64
	bestDist, decimalDist := math.Inf(1), math.Inf(1)
	haveAny, haveDecimal := false, false
	for _, w := range words {
		if !sameRow(w, anchor) || w.Text == anchor.Text {
			continue
		}
		token := textutil.NormalizeAmountToken(w.Text)
		amount, ok := textutil.ParseNumber(w.Text)
		if !ok {
			continue
		}
		dist := math.Abs(w.X - anchor.X)
		if dist < bestDist {
			bestAmount, bestDist = amount, dist
			haveAny = true
		}
		if strings.Contains(token, ".") && dist < decimalDist {
			decimalAmount, decimalDist = amount, dist
			haveDecimal = true
		}
	}
	if haveDecimal {
		return decimalAmount, true
	}
	if haveAny {
		return bestAmount, true
	}
	return 0, false
}

func findMarkerWord(words []extract.Word, markers []string) (extract.Word, bool) {
	for _, w := range words {
		for _, marker := range markers {
			if strings.Contains(w.Text, marker) {
				return w, true
			}
		}
	}
	return extract.Word{}, false
}

func sameRow(a, b extract.Word) bool {
	return math.Abs(a.Y-b.Y) <= splitRowTolerance
}

// pageDescription derives a per-unit description from the page's own lines,
// reusing the municipal phrasings of the document-level extractor.
func pageDescription(lines []string, pageText string) string {
	for _, line := range lines {
		if strings.Contains(line, "ארנונה") {
			if cleaned := normalizeInvoiceForValue(line); cleaned != "" {
				return cleaned
			}
		}
	}
	if strings.Contains(pageText, "ארנונה לעסקים") {
		return "ארנונה לעסקים"
	}
	if strings.Contains(pageText, "ארנונה") {
		return "ארנונה"
	}
	return ""
}
