package dedup

import (
	"errors"
	"fmt"
)

// DedupError wraps a failure with its operation and path.
type DedupError struct {
	Op   string
	Path string
	Err  error
}

func (e *DedupError) Error() string {
	return fmt.Sprintf("dedup: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DedupError) Unwrap() error { return e.Err }

func (e *DedupError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
