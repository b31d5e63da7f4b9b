package report

import (
	"encoding/json"
	"math"
	"os"

	"invreport/pkg/models"
)

// FieldStats aggregates one numeric field across a record set. All
// statistics except Missing are computed only over non-null values; a
// present zero counts as present, never as missing.
type FieldStats struct {
	Sum      float64  `json:"sum"`
	AbsSum   float64  `json:"abs_sum"`
	Present  int      `json:"present"`
	Missing  int      `json:"missing"`
	Zero     int      `json:"zero"`
	Negative int      `json:"negative"`
	Positive int      `json:"positive"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Average  *float64 `json:"average"`
}

// Summary is the aggregate report over a completed record set. It is a pure
// reduction computed after all per-document records exist.
type Summary struct {
	Records int                   `json:"records"`
	Fields  map[string]FieldStats `json:"fields"`
}

// summaryFields maps field name to accessor for the numeric record fields.
var summaryFields = map[string]func(*models.InvoiceRecord) *float64{
	"invoice_total":       func(r *models.InvoiceRecord) *float64 { return r.InvoiceTotal },
	"invoice_vat":         func(r *models.InvoiceRecord) *float64 { return r.InvoiceVAT },
	"base_before_vat":     func(r *models.InvoiceRecord) *float64 { return r.BaseBeforeVAT },
	"vat_rate":            func(r *models.InvoiceRecord) *float64 { return r.VATRate },
	"breakdown_sum":       func(r *models.InvoiceRecord) *float64 { return r.BreakdownSum },
	"category_confidence": func(r *models.InvoiceRecord) *float64 { return r.CategoryConfidence },
	"parse_confidence":    func(r *models.InvoiceRecord) *float64 { return r.ParseConfidence },
}

// Summarize computes per-field statistics over the records.
func Summarize(records []*models.InvoiceRecord) Summary {
	summary := Summary{
		Records: len(records),
		Fields:  make(map[string]FieldStats, len(summaryFields)),
	}
	for name, accessor := range summaryFields {
		stats := FieldStats{}
		for _, record := range records {
			value := accessor(record)
			if value == nil {
				stats.Missing++
				continue
			}
			v := *value
			stats.Present++
			stats.Sum += v
			stats.AbsSum += math.Abs(v)
			switch {
			case v == 0:
				stats.Zero++
			case v < 0:
				stats.Negative++
			default:
				stats.Positive++
			}
			if stats.Min == nil || v < *stats.Min {
				stats.Min = cloneFloat(v)
			}
			if stats.Max == nil || v > *stats.Max {
				stats.Max = cloneFloat(v)
			}
		}
		if stats.Present > 0 {
			stats.Average = cloneFloat(stats.Sum / float64(stats.Present))
		}
		summary.Fields[name] = stats
	}
	return summary
}

// WriteSummary writes the aggregate summary as indented JSON.
func WriteSummary(records []*models.InvoiceRecord, path string) error {
	summary := Summarize(records)
	f, err := os.Create(path)
	if err != nil {
		return &ReportError{Op: "WriteSummary", Path: path, Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return &ReportError{Op: "WriteSummary", Path: path, Err: err}
	}
	return nil
}

func cloneFloat(v float64) *float64 { return &v }
