package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Word is a positioned word on a page. Coordinates are in PDF user space
// with the origin at the bottom-left corner of the page.
type Word struct {
	Text string
	X    float64 // left edge
	Y    float64 // baseline
	W    float64 // right edge of the last glyph
}

// PageWords extracts positioned words for every page of the document. Unlike
// plain text extraction, word positions survive multi-column layouts, which
// is required to anchor a "total due" amount to its on-page label. An error
// on any page fails the whole call: the multi-unit splitter must abort
// rather than risk mismatched per-unit totals.
func PageWords(path string) ([][]Word, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Op: "PageWords", Path: path, Err: ErrUnreadableDocument}
	}
	defer f.Close()

	pages := make([][]Word, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		words, err := pageWords(reader, i)
		if err != nil {
			return nil, &ExtractionError{Op: "PageWords", Path: path, Err: err}
		}
		pages = append(pages, words)
	}
	return pages, nil
}

func pageWords(reader *pdf.Reader, pageNum int) (words []Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing", pageNum)
	}
	return groupWords(page.Content().Text), nil
}

// groupWords clusters per-glyph text fragments into words: fragments on the
// same baseline whose horizontal gap is smaller than roughly half a glyph
// width belong to the same word.
func groupWords(texts []pdf.Text) []Word {
	const rowTolerance = 2.0

	sorted := append([]pdf.Text(nil), texts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var words []Word
	var current strings.Builder
	var cur Word
	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			cur.Text = text
			words = append(words, cur)
		}
		current.Reset()
	}
	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" {
			if current.Len() > 0 {
				flush()
			}
			continue
		}
		gap := t.FontSize * 0.5
		if gap <= 0 {
			gap = 3.0
		}
		if current.Len() == 0 {
			cur = Word{X: t.X, Y: t.Y, W: t.W}
			current.WriteString(t.S)
			continue
		}
		sameRow := t.Y >= cur.Y-rowTolerance && t.Y <= cur.Y+rowTolerance
		if sameRow && t.X-cur.W <= gap {
			current.WriteString(t.S)
			if t.W > cur.W {
				cur.W = t.W
			}
			continue
		}
		flush()
		cur = Word{X: t.X, Y: t.Y, W: t.W}
		current.WriteString(t.S)
	}
	flush()
	return words
}
