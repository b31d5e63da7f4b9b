package report

import (
	"sort"

	"github.com/xuri/excelize/v2"

	"invreport/pkg/models"
)

const (
	recordsSheet = "Invoices"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with the record table on one sheet and the
// aggregate numeric summary on another. Cell values follow the CSV rendering
// rules, so the two tabular outputs stay comparable.
func WriteXLSX(records []*models.InvoiceRecord, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(recordsSheet); err != nil {
		return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
	}
	index, _ := f.GetSheetIndex(recordsSheet)
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
	}

	for i, column := range csvColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(recordsSheet, cell, column); err != nil {
			return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
		}
	}
	for rowIdx, record := range records {
		for colIdx, column := range csvColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(recordsSheet, cell, CellValue(record, column)); err != nil {
				return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
			}
		}
	}

	if err := writeSummarySheet(f, records); err != nil {
		return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
	}
	if err := f.SaveAs(path); err != nil {
		return &ReportError{Op: "WriteXLSX", Path: path, Err: err}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, records []*models.InvoiceRecord) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	headers := []string{
		"field", "sum", "abs_sum", "present", "missing",
		"zero", "negative", "positive", "min", "max", "average",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return err
		}
	}

	summary := Summarize(records)
	names := make([]string, 0, len(summary.Fields))
	for name := range summary.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for rowIdx, name := range names {
		stats := summary.Fields[name]
		values := []any{
			name, stats.Sum, stats.AbsSum, stats.Present, stats.Missing,
			stats.Zero, stats.Negative, stats.Positive,
			optCell(stats.Min), optCell(stats.Max), optCell(stats.Average),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func optCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
