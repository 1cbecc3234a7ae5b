package resolve

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/neovate-digital/namesys/name"
)

// Attempt records one failed strategy probe.
type Attempt struct {
	Strategy string
	Err      error
}

// ExhaustedError reports that every strategy in the chain failed.
//
// Attempts preserves probe order, one entry per strategy. The combined
// error supports errors.Is/As against the individual strategy failures.
type ExhaustedError struct {
	Name     name.Name
	Attempts []Attempt

	combined error
}

func newExhausted(n name.Name, attempts []Attempt) *ExhaustedError {
	var combined error
	for _, a := range attempts {
		combined = multierr.Append(combined, fmt.Errorf("%s: %w", a.Strategy, a.Err))
	}
	return &ExhaustedError{Name: n, Attempts: attempts, combined: combined}
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("resolve: all strategies exhausted for %s: %v", e.Name, e.combined)
}

func (e *ExhaustedError) Unwrap() error { return e.combined }

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
