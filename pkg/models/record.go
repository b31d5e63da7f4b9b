package models

// DefaultCurrency is the currency symbol assumed for documents that do not
// state one explicitly.
const DefaultCurrency = "₪"

// InvoiceRecord is the structured financial record produced for one source
// document (or one billing unit, when a municipal document is split).
//
// All fields except SourceFile are optional. Scalar fields use pointers so
// that an absent value serializes as JSON null rather than a zero value; the
// CSV writer renders absent values as empty cells.
type InvoiceRecord struct {
	SourceFile string `json:"source_file"`

	// Core identifiers and parties.
	InvoiceID   *string `json:"invoice_id"`
	InvoiceDate *string `json:"invoice_date"` // YYYY-MM-DD where inferable
	InvoiceFrom *string `json:"invoice_from"` // vendor/issuer display name
	InvoiceFor  *string `json:"invoice_for"`  // free-text description of what is billed

	// Amounts.
	InvoiceTotal    *float64  `json:"invoice_total"`
	InvoiceVAT      *float64  `json:"invoice_vat"`
	Currency        *string   `json:"currency"`
	BreakdownSum    *float64  `json:"breakdown_sum"`
	BreakdownValues []float64 `json:"breakdown_values"` // signed; credits are negative
	BaseBeforeVAT   *float64  `json:"base_before_vat"`
	VATRate         *float64  `json:"vat_rate"` // percentage

	// Billing period.
	PeriodStart *string `json:"period_start"`
	PeriodEnd   *string `json:"period_end"`
	PeriodLabel *string `json:"period_label"`
	DueDate     *string `json:"due_date"`

	// Classification.
	Category           *string  `json:"category"`
	CategoryConfidence *float64 `json:"category_confidence"`
	CategoryRule       *string  `json:"category_rule"`

	// External references (purchase orders, account numbers), first-seen
	// order, de-duplicated, at most five.
	ReferenceNumbers []string `json:"reference_numbers"`

	// Diagnostics.
	DataSource      *string  `json:"data_source"` // which extraction backend produced the text
	ParseConfidence *float64 `json:"parse_confidence"`
	Municipal       *bool    `json:"municipal"`
	DuplicateHash   *string  `json:"duplicate_hash"`
	Notes           *string  `json:"notes"`
}

// NewInvoiceRecord creates a record for the given source file with the
// default currency applied.
func NewInvoiceRecord(sourceFile string) *InvoiceRecord {
	return &InvoiceRecord{
		SourceFile: sourceFile,
		Currency:   String(DefaultCurrency),
	}
}

// AppendNote adds a diagnostic note, joining multiple notes with "; ".
func (r *InvoiceRecord) AppendNote(note string) {
	if r.Notes == nil || *r.Notes == "" {
		r.Notes = String(note)
		return
	}
	combined := *r.Notes + "; " + note
	r.Notes = &combined
}

// Clone returns a deep copy of the record. Used by the multi-unit splitter to
// derive per-unit records that inherit the aggregate's fields.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	out := *r
	out.InvoiceID = clonePtr(r.InvoiceID)
	out.InvoiceDate = clonePtr(r.InvoiceDate)
	out.InvoiceFrom = clonePtr(r.InvoiceFrom)
	out.InvoiceFor = clonePtr(r.InvoiceFor)
	out.InvoiceTotal = clonePtr(r.InvoiceTotal)
	out.InvoiceVAT = clonePtr(r.InvoiceVAT)
	out.Currency = clonePtr(r.Currency)
	out.BreakdownSum = clonePtr(r.BreakdownSum)
	out.BaseBeforeVAT = clonePtr(r.BaseBeforeVAT)
	out.VATRate = clonePtr(r.VATRate)
	out.PeriodStart = clonePtr(r.PeriodStart)
	out.PeriodEnd = clonePtr(r.PeriodEnd)
	out.PeriodLabel = clonePtr(r.PeriodLabel)
	out.DueDate = clonePtr(r.DueDate)
	out.Category = clonePtr(r.Category)
	out.CategoryConfidence = clonePtr(r.CategoryConfidence)
	out.CategoryRule = clonePtr(r.CategoryRule)
	out.DataSource = clonePtr(r.DataSource)
	out.ParseConfidence = clonePtr(r.ParseConfidence)
	out.Municipal = clonePtr(r.Municipal)
	out.DuplicateHash = clonePtr(r.DuplicateHash)
	out.Notes = clonePtr(r.Notes)
	if r.BreakdownValues != nil {
		out.BreakdownValues = append([]float64(nil), r.BreakdownValues...)
	}
	if r.ReferenceNumbers != nil {
		out.ReferenceNumbers = append([]string(nil), r.ReferenceNumbers...)
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String returns a pointer to v.
func String(v string) *string { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
