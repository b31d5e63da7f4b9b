package extract

import (
	"errors"
	"strings"
	"testing"
)

// fakeBackend returns fixed text; calls counts how often it actually ran.
type fakeBackend struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) ExtractText(string) (string, error) {
	f.calls++
	return f.text, f.err
}

func hebrewText(words int) string {
	return strings.TrimSpace(strings.Repeat("חשבונית מס לתשלום מיידי ", words))
}

func TestNeedsFallback(t *testing.T) {
	q := DefaultQualityThresholds()
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"too short", "קצר מדי", true},
		{"long but no hebrew", strings.Repeat("abcdefgh ", 40), true},
		{"glyph markers", hebrewText(20) + strings.Repeat("(cid:3)", 6), true},
		{"adequate hebrew", hebrewText(20), false},
		{"few glyph markers tolerated", hebrewText(20) + strings.Repeat("(cid:3)", 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.NeedsFallback(tt.text); got != tt.want {
				t.Errorf("NeedsFallback = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectorUsesPrimaryWhenAdequate(t *testing.T) {
	primary := &fakeBackend{name: SourceFitz, text: hebrewText(20)}
	secondary := &fakeBackend{name: SourceGlyph, text: "אחר"}
	s := NewSelectorWith(primary, secondary, DefaultQualityThresholds())

	result, err := s.Extract("doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != SourceFitz {
		t.Errorf("Source = %q, want %q", result.Source, SourceFitz)
	}
	if secondary.calls != 0 {
		t.Error("secondary backend ran although primary output was adequate")
	}
}

func TestSelectorFallsBackOnGarbledPrimary(t *testing.T) {
	garbled := strings.Repeat("(cid:3)", 12)
	primary := &fakeBackend{name: SourceFitz, text: garbled}
	secondary := &fakeBackend{name: SourceGlyph, text: hebrewText(20)}
	s := NewSelectorWith(primary, secondary, DefaultQualityThresholds())

	result, err := s.Extract("doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != SourceGlyph {
		t.Errorf("Source = %q, want %q", result.Source, SourceGlyph)
	}
	if result.Text != secondary.text {
		t.Error("fallback text not used")
	}
	if result.PrimaryText != garbled {
		t.Error("primary text not preserved alongside fallback")
	}
}

func TestSelectorNoTextFromEitherBackend(t *testing.T) {
	primary := &fakeBackend{name: SourceFitz, text: ""}
	secondary := &fakeBackend{name: SourceGlyph, text: ""}
	s := NewSelectorWith(primary, secondary, DefaultQualityThresholds())

	_, err := s.Extract("doc.pdf")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestSelectorPrimaryErrorFallsBack(t *testing.T) {
	primary := &fakeBackend{name: SourceFitz, err: errors.New("broken xref")}
	secondary := &fakeBackend{name: SourceGlyph, text: hebrewText(20)}
	s := NewSelectorWith(primary, secondary, DefaultQualityThresholds())

	result, err := s.Extract("doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != SourceGlyph {
		t.Errorf("Source = %q, want %q", result.Source, SourceGlyph)
	}
}

func TestResultSecondaryTextMemoized(t *testing.T) {
	primary := &fakeBackend{name: SourceFitz, text: hebrewText(20)}
	secondary := &fakeBackend{name: SourceGlyph, text: "טקסט משני"}
	s := NewSelectorWith(primary, secondary, DefaultQualityThresholds())

	result, err := s.Extract("doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if result.SecondaryText() != "טקסט משני" {
		t.Error("unexpected secondary text")
	}
	result.SecondaryText()
	result.SecondaryText()
	if secondary.calls != 1 {
		t.Errorf("secondary ran %d times, want 1 (memoized)", secondary.calls)
	}
}
