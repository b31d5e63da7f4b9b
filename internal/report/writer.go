// Package report serializes invoice records as JSON, CSV, XLSX, and an
// aggregate summary of the numeric fields.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"invreport/pkg/models"
)

// csvColumns is the fixed CSV column order. The amount columns run
// base-before-VAT, then VAT, then total, so the sheet reads left to right in
// the order the amounts compose.
var csvColumns = []string{
	"source_file",
	"invoice_id",
	"invoice_date",
	"invoice_from",
	"invoice_for",
	"base_before_vat",
	"invoice_vat",
	"invoice_total",
	"vat_rate",
	"currency",
	"breakdown_sum",
	"breakdown_values",
	"notes",
	"period_start",
	"period_end",
	"period_label",
	"due_date",
	"category",
	"category_confidence",
	"category_rule",
	"reference_numbers",
	"data_source",
	"parse_confidence",
	"municipal",
	"duplicate_hash",
}

// WriteJSON writes the records as an indented JSON array. Absent scalar
// fields serialize as null.
func WriteJSON(records []*models.InvoiceRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &ReportError{Op: "WriteJSON", Path: path, Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if records == nil {
		records = []*models.InvoiceRecord{}
	}
	if err := enc.Encode(records); err != nil {
		return &ReportError{Op: "WriteJSON", Path: path, Err: err}
	}
	return nil
}

// WriteCSV writes the records in the fixed column order: floats with exactly
// two decimals, booleans as lowercase true/false, list values JSON-encoded
// inline, absent values as empty cells.
func WriteCSV(records []*models.InvoiceRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &ReportError{Op: "WriteCSV", Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return &ReportError{Op: "WriteCSV", Path: path, Err: err}
	}
	for _, record := range records {
		if err := w.Write(csvRow(record)); err != nil {
			return &ReportError{Op: "WriteCSV", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &ReportError{Op: "WriteCSV", Path: path, Err: err}
	}
	return nil
}

func csvRow(r *models.InvoiceRecord) []string {
	row := make([]string, 0, len(csvColumns))
	for _, column := range csvColumns {
		row = append(row, CellValue(r, column))
	}
	return row
}

// CellValue renders one field of a record for tabular output.
func CellValue(r *models.InvoiceRecord, column string) string {
	switch column {
	case "source_file":
		return r.SourceFile
	case "invoice_id":
		return cellString(r.InvoiceID)
	case "invoice_date":
		return cellString(r.InvoiceDate)
	case "invoice_from":
		return cellString(r.InvoiceFrom)
	case "invoice_for":
		return cellString(r.InvoiceFor)
	case "base_before_vat":
		return cellFloat(r.BaseBeforeVAT)
	case "invoice_vat":
		return cellFloat(r.InvoiceVAT)
	case "invoice_total":
		return cellFloat(r.InvoiceTotal)
	case "vat_rate":
		return cellFloat(r.VATRate)
	case "currency":
		return cellString(r.Currency)
	case "breakdown_sum":
		return cellFloat(r.BreakdownSum)
	case "breakdown_values":
		return cellFloatList(r.BreakdownValues)
	case "notes":
		return cellString(r.Notes)
	case "period_start":
		return cellString(r.PeriodStart)
	case "period_end":
		return cellString(r.PeriodEnd)
	case "period_label":
		return cellString(r.PeriodLabel)
	case "due_date":
		return cellString(r.DueDate)
	case "category":
		return cellString(r.Category)
	case "category_confidence":
		return cellFloat(r.CategoryConfidence)
	case "category_rule":
		return cellString(r.CategoryRule)
	case "reference_numbers":
		return cellStringList(r.ReferenceNumbers)
	case "data_source":
		return cellString(r.DataSource)
	case "parse_confidence":
		return cellFloat(r.ParseConfidence)
	case "municipal":
		return cellBool(r.Municipal)
	case "duplicate_hash":
		return cellString(r.DuplicateHash)
	}
	return ""
}

func cellString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cellFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func cellBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func cellFloatList(values []float64) string {
	if values == nil {
		return ""
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func cellStringList(values []string) string {
	if values == nil {
		return ""
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(encoded)
}
