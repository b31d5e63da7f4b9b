package report

import (
	"errors"
	"fmt"
)

// ReportError wraps a serialization failure with its operation and output
// path.
type ReportError struct {
	Op   string
	Path string
	Err  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

func (e *ReportError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
