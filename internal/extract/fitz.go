package extract

import (
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzBackend extracts text with MuPDF via go-fitz. It preserves the page
// layout reading order and is used as the primary backend.
type FitzBackend struct{}

// Name implements Backend.
func (FitzBackend) Name() string { return SourceFitz }

// ExtractText returns the concatenated text of all pages. A failure on one
// page skips that page rather than aborting the document.
func (FitzBackend) ExtractText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", &ExtractionError{Op: "ExtractText", Path: path, Err: ErrUnreadableDocument}
	}
	defer doc.Close()

	parts := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// PageTexts returns the text of each page separately, for page-scoped
// processing such as the multi-unit splitter's breakdown blocks. Pages that
// fail to render contribute an empty string so indexes stay aligned.
func (FitzBackend) PageTexts(path string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &ExtractionError{Op: "PageTexts", Path: path, Err: ErrUnreadableDocument}
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}
