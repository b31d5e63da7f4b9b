package parse

import (
	"math"

	"invreport/pkg/models"
)

// ComputeParseConfidence scores how much of the record was recovered. It is a
// pure function of the populated fields and is always applied last, after all
// extractors have run: 0.4 base, +0.25 total, +0.10 VAT, +0.15 breakdown sum
// agreeing with total within 1.0, +0.05 each for a period boundary, reference
// numbers, and a category, capped at 0.99.
func ComputeParseConfidence(record *models.InvoiceRecord) float64 {
	confidence := 0.4
	if record.InvoiceTotal != nil {
		confidence += 0.25
	}
	if record.InvoiceVAT != nil {
		confidence += 0.10
	}
	if record.BreakdownSum != nil && record.InvoiceTotal != nil &&
		*record.BreakdownSum != 0 && *record.InvoiceTotal != 0 &&
		math.Abs(*record.BreakdownSum-*record.InvoiceTotal) <= 1.0 {
		confidence += 0.15
	}
	if record.PeriodStart != nil || record.PeriodEnd != nil {
		confidence += 0.05
	}
	if len(record.ReferenceNumbers) > 0 {
		confidence += 0.05
	}
	if record.Category != nil {
		confidence += 0.05
	}
	return math.Min(confidence, 0.99)
}
