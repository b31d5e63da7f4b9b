package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNoText is returned when neither backend could produce any text
	// for a document.
	ErrNoText = errors.New("no text could be extracted")

	// ErrUnreadableDocument is returned when a document cannot be opened
	// as a PDF at all.
	ErrUnreadableDocument = errors.New("document cannot be opened")
)

// ExtractionError wraps a backend failure with the operation and file that
// failed.
type ExtractionError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return errors.Is(e.Err, target) }
