package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// GlyphBackend reads glyphs directly from the PDF content streams via
// ledongthuc/pdf. It ignores layout entirely, which makes it resilient to
// font-encoding corruption in the primary backend's output, and is used as
// the secondary backend.
type GlyphBackend struct{}

// Name implements Backend.
func (GlyphBackend) Name() string { return SourceGlyph }

// ExtractText extracts text page by page. A failure (or panic inside the
// parser) on one page must not abort extraction of the remaining pages.
func (GlyphBackend) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractionError{Op: "ExtractText", Path: path, Err: ErrUnreadableDocument}
	}
	defer f.Close()

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := glyphPageText(reader, i)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// glyphPageText extracts a single page, converting parser panics into
// errors so one malformed page is isolated.
func glyphPageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", pageNum)
	}
	return page.GetPlainText(nil)
}
