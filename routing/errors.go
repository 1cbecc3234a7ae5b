package routing

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no record lives under the requested key.
var ErrNotFound = errors.New("routing: record not found")

// ErrUnavailable reports that the backend could not be reached or did not
// answer in time. The record may or may not have been stored.
var ErrUnavailable = errors.New("routing: backend unavailable")

// ErrRejected reports that the backend refused the record: it failed
// validation, is older than what the backend already holds, or conflicts
// with an equal-sequence record with different bytes.
var ErrRejected = errors.New("routing: record rejected")

// IsNotFound reports whether err indicates an absent record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnavailable reports whether err indicates an unreachable backend.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsRejected reports whether err indicates a refused record.
func IsRejected(err error) bool { return errors.Is(err, ErrRejected) }

func rejectedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}
