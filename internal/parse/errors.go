package parse

import (
	"errors"
	"fmt"
)

// ErrInputDirMissing indicates the batch input directory does not exist.
var ErrInputDirMissing = errors.New("input directory does not exist")

// ParseError wraps a batch-level failure with its operation and path.
// Per-document failures never surface as errors; they degrade the record
// instead.
type ParseError struct {
	Op   string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
