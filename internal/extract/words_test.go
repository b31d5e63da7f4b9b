package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestGroupWordsClustersFragments(t *testing.T) {
	// Two words on one row, glyphs emitted out of order, plus one word on a
	// lower row.
	texts := []pdf.Text{
		{S: "ב", X: 104, Y: 700, W: 108, FontSize: 10},
		{S: "א", X: 100, Y: 700, W: 104, FontSize: 10},
		{S: "ג", X: 130, Y: 700, W: 134, FontSize: 10},
		{S: "ד", X: 134, Y: 700, W: 138, FontSize: 10},
		{S: "ה", X: 100, Y: 650, W: 104, FontSize: 10},
	}
	words := groupWords(texts)
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3: %+v", len(words), words)
	}
	if words[0].Text != "אב" {
		t.Errorf("words[0] = %q, want אב", words[0].Text)
	}
	if words[1].Text != "גד" {
		t.Errorf("words[1] = %q, want גד", words[1].Text)
	}
	if words[2].Text != "ה" || words[2].Y != 650 {
		t.Errorf("words[2] = %+v, want row 650", words[2])
	}
}

func TestGroupWordsWhitespaceBreaks(t *testing.T) {
	texts := []pdf.Text{
		{S: "a", X: 10, Y: 100, W: 12, FontSize: 10},
		{S: " ", X: 12, Y: 100, W: 14, FontSize: 10},
		{S: "b", X: 14, Y: 100, W: 16, FontSize: 10},
	}
	words := groupWords(texts)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2: %+v", len(words), words)
	}
	if words[0].Text != "a" || words[1].Text != "b" {
		t.Errorf("words = %+v", words)
	}
}
