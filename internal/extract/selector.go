// Package extract obtains the best-available plain-text representation of an
// invoice document. It runs a layout-aware primary backend (MuPDF via
// go-fitz), judges the output with a quality heuristic, and falls back to a
// glyph-direct secondary backend (ledongthuc/pdf) when the primary output
// looks corrupted. It also exposes per-page word positions for layouts where
// line-based text loses positional grouping.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"invreport/internal/logger"
)

// Backend tags reported in InvoiceRecord.DataSource.
const (
	SourceFitz  = "fitz"
	SourceGlyph = "glyph"
)

// Backend converts a document's visual content into plain text.
type Backend interface {
	Name() string
	ExtractText(path string) (string, error)
}

// QualityThresholds control when primary output is judged inadequate.
type QualityThresholds struct {
	// MinChars is the minimum length of stripped text.
	MinChars int
	// MinScriptLetters is the minimum count of letters in the document's
	// expected script.
	MinScriptLetters int
	// MaxGlyphMarkers is the maximum tolerated count of unresolved-glyph
	// markers before the text is considered corrupted.
	MaxGlyphMarkers int
}

// DefaultQualityThresholds returns the thresholds tuned for Hebrew-locale
// invoices.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinChars:         200,
		MinScriptLetters: 15,
		MaxGlyphMarkers:  5,
	}
}

// hebrewLetterRe matches letters of the expected document script.
var hebrewLetterRe = regexp.MustCompile(`[א-ת]`)

// glyphMarker is the unresolved-glyph artifact emitted for characters whose
// font encoding could not be resolved.
const glyphMarker = "(cid:"

// NeedsFallback reports whether primary output is inadequate and the
// secondary backend should be tried.
func (q QualityThresholds) NeedsFallback(text string) bool {
	stripped := strings.TrimSpace(text)
	if utf8.RuneCountInString(stripped) < q.MinChars {
		return true
	}
	letters := len(hebrewLetterRe.FindAllString(stripped, -1))
	markers := strings.Count(stripped, glyphMarker)
	return letters < q.MinScriptLetters || markers > q.MaxGlyphMarkers
}

// Result is the outcome of text selection for one document. Secondary text
// is fetched lazily and memoized for the lifetime of the Result, so a field
// extractor that retries against the other backend does not trigger a second
// extraction pass.
type Result struct {
	// Text is the chosen text used for downstream field extraction.
	Text string
	// Source is the tag of the backend that produced Text.
	Source string
	// PrimaryText is the primary backend's output regardless of which
	// backend was chosen (may equal Text). The breakdown-sum block is
	// always read from primary lines.
	PrimaryText string

	secondary     func() string
	secondaryText string
	secondaryDone bool
}

// SecondaryText returns the secondary backend's output, extracting it on
// first use and reusing the cached value afterwards.
func (r *Result) SecondaryText() string {
	if !r.secondaryDone {
		r.secondaryText = r.secondary()
		r.secondaryDone = true
	}
	return r.secondaryText
}

// NewStaticResult builds a Result from fixed strings. Intended for tests and
// for callers that already hold extracted text.
func NewStaticResult(text, source, primaryText, secondaryText string) *Result {
	return &Result{
		Text:          text,
		Source:        source,
		PrimaryText:   primaryText,
		secondaryText: secondaryText,
		secondaryDone: true,
	}
}

// Selector chooses between the primary and secondary backends.
type Selector struct {
	primary    Backend
	secondary  Backend
	thresholds QualityThresholds
	log        zerolog.Logger
}

// NewSelector returns a Selector over the default backend pair.
func NewSelector() *Selector {
	return NewSelectorWith(FitzBackend{}, GlyphBackend{}, DefaultQualityThresholds())
}

// NewSelectorWith returns a Selector over explicit backends and thresholds.
func NewSelectorWith(primary, secondary Backend, thresholds QualityThresholds) *Selector {
	return &Selector{
		primary:    primary,
		secondary:  secondary,
		thresholds: thresholds,
		log:        logger.WithComponent("extract"),
	}
}

// Extract runs the primary backend, evaluates its output, and falls back to
// the secondary backend when the output is inadequate. It returns ErrNoText
// when neither backend yields any text; the caller degrades to a minimal
// record rather than failing the batch.
func (s *Selector) Extract(path string) (*Result, error) {
	log := logger.WithFile(s.log, path)
	primaryText, err := s.primary.ExtractText(path)
	if err != nil {
		log.Debug().Err(err).Str("backend", s.primary.Name()).
			Msg("Primary extraction failed")
		primaryText = ""
	}

	result := &Result{
		Text:        primaryText,
		Source:      s.primary.Name(),
		PrimaryText: primaryText,
		secondary: func() string {
			text, err := s.secondary.ExtractText(path)
			if err != nil {
				log.Debug().Err(err).Str("backend", s.secondary.Name()).
					Msg("Secondary extraction failed")
				return ""
			}
			return text
		},
	}

	if s.thresholds.NeedsFallback(primaryText) {
		if fallback := result.SecondaryText(); fallback != "" {
			log.Debug().
				Int("primary_len", len(primaryText)).
				Msg("Primary output inadequate, using secondary backend")
			result.Text = fallback
			result.Source = s.secondary.Name()
		}
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, &ExtractionError{Op: "Extract", Path: path, Err: ErrNoText}
	}
	return result, nil
}
