package parse

import (
	"math"
	"strings"
	"testing"
)

func testParser() *Parser {
	return NewParserWith(DefaultRuleset(), nil, nil)
}

func TestFindAmountBeforeMarkerSkipsPercentLine(t *testing.T) {
	// An inline percent sign disables the inline search; look-back wins
	// before look-ahead is tried.
	lines := []string{"prior ₪250.00", "TOTAL DUE 17%", "next ₪200.00"}
	amount, ok := findAmountBeforeMarker(lines, "TOTAL DUE", false)
	if !ok || amount != 250.00 {
		t.Fatalf("findAmountBeforeMarker = (%v, %v), want (250.00, true)", amount, ok)
	}
}

func TestFindAmountBeforeMarkerInline(t *testing.T) {
	lines := []string{`מ"עמ 90.00`}
	amount, ok := findAmountBeforeMarker(lines, `מ"עמ `, false)
	if !ok || amount != 90.00 {
		t.Fatalf("findAmountBeforeMarker = (%v, %v), want (90.00, true)", amount, ok)
	}
}

func TestFindAmountBeforeMarkerSkipsDateLookback(t *testing.T) {
	// A look-back line with a slash but no currency symbol is noise.
	lines := []string{"01/02/2024", "לתשלום", "88.50"}
	amount, ok := findAmountBeforeMarker(lines, "לתשלום", false)
	if !ok || amount != 88.50 {
		t.Fatalf("findAmountBeforeMarker = (%v, %v), want (88.50, true)", amount, ok)
	}
}

func TestSumNumericBlock(t *testing.T) {
	lines := []string{
		"כותרת",
		`ח"שב`,
		"1,000",
		"250.50",
		"טקסט שאינו מספר",
		"-50",
		`סה"כ יגבה`,
		"999",
	}
	sum, values, found := sumNumericBlock(lines, breakdownStartMarkers, breakdownEndMarkers)
	if !found {
		t.Fatal("sumNumericBlock found nothing")
	}
	if sum != 1200.50 {
		t.Errorf("sum = %v, want 1200.50", sum)
	}
	want := []float64{1000, 250.50, -50}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestInferTotalsBasicCascade(t *testing.T) {
	lines := []string{
		`סה"כ לתשלום`,
		"590.00",
		`מ"עמ 90.00`,
		`מ"עמ ינפל 500.00`,
	}
	text := strings.Join(lines, "\n")
	totals := testParser().inferTotals(lines, text, lines)

	if totals.Total == nil || *totals.Total != 590.00 {
		t.Fatalf("Total = %v, want 590.00", totals.Total)
	}
	if totals.VAT == nil || *totals.VAT != 90.00 {
		t.Fatalf("VAT = %v, want 90.00", totals.VAT)
	}
	if totals.BaseBeforeVAT == nil || *totals.BaseBeforeVAT != 500.00 {
		t.Fatalf("BaseBeforeVAT = %v, want 500.00", totals.BaseBeforeVAT)
	}
	if totals.VATRate == nil || math.Abs(*totals.VATRate-18.0) > 0.01 {
		t.Fatalf("VATRate = %v, want 18.0", totals.VATRate)
	}
	if totals.Municipal {
		t.Error("Municipal = true for a regular invoice")
	}
}

func TestInferTotalsMunicipalOverride(t *testing.T) {
	lines := []string{
		"עיריית פתח תקווה",
		"ארנונה",
		`מ"עמ 45.00`, // VAT-labeled text must not survive the override
		`ח"שב`,
		"800",
		"450.50",
		`סה"כ יגבה`,
	}
	text := strings.Join(lines, "\n")
	totals := testParser().inferTotals(lines, text, lines)

	if !totals.Municipal {
		t.Fatal("Municipal = false, want true")
	}
	if totals.VAT == nil || *totals.VAT != 0.0 {
		t.Fatalf("VAT = %v, want 0.0", totals.VAT)
	}
	if totals.Total == nil || *totals.Total != 1250.50 {
		t.Fatalf("Total = %v, want block sum 1250.50", totals.Total)
	}
	if totals.BreakdownSum == nil || *totals.BreakdownSum != 1250.50 {
		t.Fatalf("BreakdownSum = %v, want 1250.50", totals.BreakdownSum)
	}
}

func TestInferTotalsMunicipalKeepsCloseTotal(t *testing.T) {
	// When the inferred total agrees with the block sum within 1.0 the
	// label-derived total is kept.
	lines := []string{
		"ארנונה",
		`סה"כ לתשלום`,
		"1250.00",
		`ח"שב`,
		"800",
		"450.50",
		`סה"כ יגבה`,
	}
	text := strings.Join(lines, "\n")
	totals := testParser().inferTotals(lines, text, lines)

	if !totals.Municipal {
		t.Fatal("Municipal = false, want true")
	}
	if totals.Total == nil || *totals.Total != 1250.00 {
		t.Fatalf("Total = %v, want 1250.00", totals.Total)
	}
	if totals.VAT == nil || *totals.VAT != 0.0 {
		t.Fatalf("VAT = %v, want 0.0", totals.VAT)
	}
}

func TestExtractVATRate(t *testing.T) {
	rate := extractVATRate(`18% מ"עמ`)
	if rate == nil || *rate != 18.0 {
		t.Fatalf("extractVATRate = %v, want 18.0", rate)
	}
	if extractVATRate("אין כאן אחוזים") != nil {
		t.Error("extractVATRate matched text without a rate")
	}
}

func TestVATRateEstimate(t *testing.T) {
	total, vat := 590.0, 90.0
	rate := vatRateEstimate(&total, &vat)
	if rate == nil || *rate != 18.0 {
		t.Fatalf("vatRateEstimate = %v, want 18.0", rate)
	}
	zero := 0.0
	if vatRateEstimate(&zero, &vat) != nil {
		t.Error("vatRateEstimate with zero total should be nil")
	}
	if vatRateEstimate(nil, &vat) != nil {
		t.Error("vatRateEstimate with nil total should be nil")
	}
}

func TestNumericCandidatesPercentFlag(t *testing.T) {
	candidates := numericCandidates("17% וגם 250.00")
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if !candidates[0].isPercent {
		t.Error("17 should be flagged as percent")
	}
	if candidates[1].isPercent {
		t.Error("250.00 should not be flagged as percent")
	}
}
