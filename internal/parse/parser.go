// Package parse turns extracted document text into structured invoice
// records: field extraction, total/VAT inference, classification, confidence
// scoring, and multi-unit splitting of municipal bills.
package parse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"invreport/internal/extract"
	"invreport/internal/logger"
	"invreport/internal/textutil"
	"invreport/pkg/models"
)

// TextSource yields the selected text for a document. *extract.Selector is
// the production implementation; tests substitute fixed text.
type TextSource interface {
	Extract(path string) (*extract.Result, error)
}

// PageSource yields per-page views of a document for the multi-unit
// splitter: positioned words and plain per-page text.
type PageSource interface {
	PageWords(path string) ([][]extract.Word, error)
	PageTexts(path string) ([]string, error)
}

// extractPageSource is the production PageSource over the extraction
// backends.
type extractPageSource struct{}

func (extractPageSource) PageWords(path string) ([][]extract.Word, error) {
	return extract.PageWords(path)
}

func (extractPageSource) PageTexts(path string) ([]string, error) {
	return extract.FitzBackend{}.PageTexts(path)
}

// Parser runs the per-document pipeline.
type Parser struct {
	rules  *Ruleset
	source TextSource
	pages  PageSource
	log    zerolog.Logger
}

// NewParser returns a Parser over the default backends and rule tables.
func NewParser() *Parser {
	return NewParserWith(DefaultRuleset(), extract.NewSelector(), extractPageSource{})
}

// NewParserWith returns a Parser with explicit dependencies.
func NewParserWith(rules *Ruleset, source TextSource, pages PageSource) *Parser {
	return &Parser{
		rules:  rules,
		source: source,
		pages:  pages,
		log:    logger.WithComponent("parse"),
	}
}

// maxVendorLen caps the vendor display name; longer candidates are almost
// always a mis-grabbed paragraph.
const maxVendorLen = 120

// ParseInvoice parses one document into a record. It never returns an error:
// when no text is obtainable from either backend the record degrades to a
// near-empty one carrying a diagnostic note.
func (p *Parser) ParseInvoice(path string) *models.InvoiceRecord {
	name := filepath.Base(path)
	log := logger.WithFile(p.log, name)
	result, err := p.source.Extract(path)
	if err != nil {
		log.Warn().Err(err).Msg("Text extraction failed")
		record := models.NewInvoiceRecord(name)
		record.AppendNote("extract_text_failed")
		return record
	}

	text := result.Text
	lines := textutil.ExtractLines(text)
	record := models.NewInvoiceRecord(name)

	record.InvoiceID = optString(p.inferInvoiceID(lines, text))
	record.InvoiceDate = optString(p.inferInvoiceDate(text))

	// Vendor and description retry against the other backend's text when
	// the chosen text yields nothing usable.
	invoiceFrom := p.inferInvoiceFrom(lines, text)
	if invoiceFrom == "" || strings.HasPrefix(invoiceFrom, ":") {
		if alt := result.SecondaryText(); alt != "" {
			if altFrom := p.inferInvoiceFrom(textutil.ExtractLines(alt), alt); altFrom != "" {
				invoiceFrom = altFrom
			}
		}
	}
	if runes := []rune(invoiceFrom); len(runes) > maxVendorLen {
		invoiceFrom = string(runes[:maxVendorLen-3]) + "..."
	}
	record.InvoiceFrom = optString(invoiceFrom)

	invoiceFor := p.inferInvoiceFor(lines, text)
	if invoiceFor == "" {
		if alt := result.SecondaryText(); alt != "" {
			invoiceFor = p.inferInvoiceFor(textutil.ExtractLines(alt), alt)
		}
	}
	record.InvoiceFor = optString(invoiceFor)

	totals := p.inferTotals(lines, text, textutil.ExtractLines(result.PrimaryText))
	record.InvoiceTotal = totals.Total
	record.InvoiceVAT = totals.VAT
	record.BreakdownSum = totals.BreakdownSum
	if len(totals.BreakdownValues) > 0 {
		record.BreakdownValues = totals.BreakdownValues
	}
	record.BaseBeforeVAT = totals.BaseBeforeVAT
	record.VATRate = totals.VATRate
	record.Municipal = models.Bool(totals.Municipal)

	if record.BreakdownSum != nil && record.InvoiceTotal != nil &&
		absDiff(*record.BreakdownSum, *record.InvoiceTotal) > 1.0 {
		record.AppendNote("Total differs from breakdown sum")
	}

	if totals.Municipal {
		if record.InvoiceFrom == nil {
			if containsAny(text, p.rules.CityKeywords) {
				record.InvoiceFrom = models.String(p.rules.CityVendorName)
			} else {
				record.InvoiceFrom = models.String(p.rules.GenericMunicipalName)
			}
		}
		if record.InvoiceVAT == nil {
			record.InvoiceVAT = models.Float(0.0)
		}
	}

	period := p.inferPeriod(text)
	record.PeriodStart = optString(period.Start)
	record.PeriodEnd = optString(period.End)
	record.PeriodLabel = optString(period.Label)
	record.DueDate = optString(p.inferDueDate(text))
	record.ReferenceNumbers = p.inferReferenceNumbers(text)

	vendor := ""
	if record.InvoiceFrom != nil {
		vendor = *record.InvoiceFrom
	}
	classification := p.classify(text, vendor, totals.Municipal)
	record.Category = classification.Category
	record.CategoryConfidence = classification.Confidence
	record.CategoryRule = classification.Rule

	record.DataSource = models.String(result.Source)
	record.DuplicateHash = fileSHA256(path)
	record.ParseConfidence = models.Float(ComputeParseConfidence(record))

	log.Debug().
		Interface("total", record.InvoiceTotal).
		Interface("vat", record.InvoiceVAT).
		Interface("id", record.InvoiceID).
		Msg("Parsed invoice")
	return record
}

// ParseInvoices parses every PDF in inputDir (or only the named files, when
// selected is non-empty; relative names resolve against inputDir and missing
// files are skipped silently). Municipal records are offered to the
// multi-unit splitter. Documents are processed sequentially; cancellation
// discards the in-progress document and returns the records completed so
// far.
func (p *Parser) ParseInvoices(ctx context.Context, inputDir string, selected []string) ([]*models.InvoiceRecord, error) {
	if _, err := os.Stat(inputDir); err != nil {
		return nil, &ParseError{Op: "ParseInvoices", Path: inputDir, Err: ErrInputDirMissing}
	}

	var candidates []string
	if len(selected) > 0 {
		for _, name := range selected {
			if filepath.IsAbs(name) {
				candidates = append(candidates, name)
			} else {
				candidates = append(candidates, filepath.Join(inputDir, name))
			}
		}
	} else {
		matches, err := filepath.Glob(filepath.Join(inputDir, "*.pdf"))
		if err != nil {
			return nil, &ParseError{Op: "ParseInvoices", Path: inputDir, Err: err}
		}
		sort.Strings(matches)
		candidates = matches
	}

	var records []*models.InvoiceRecord
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if _, err := os.Stat(path); err != nil {
			p.log.Debug().Str("file", path).Msg("Skip missing file")
			continue
		}
		record := p.ParseInvoice(path)
		if record.Municipal != nil && *record.Municipal {
			if units, ok := p.SplitMultiUnit(path, record); ok {
				records = append(records, units...)
				continue
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// fileSHA256 hashes the document bytes for duplicate detection. Returns nil
// when the file cannot be read.
func fileSHA256(path string) *string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil
	}
	return models.String(hex.EncodeToString(h.Sum(nil)))
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return models.String(v)
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
