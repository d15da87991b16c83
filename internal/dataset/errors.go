package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetNotFound is returned when the dataset file is missing or unreadable.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrMalformedRow is matched (via errors.Is) by every *MalformedRowError.
	ErrMalformedRow = errors.New("malformed dataset row")
)

// MalformedRowError describes a row that cannot be parsed or disagrees with the dataset shape.
type MalformedRowError struct {
	Line   int
	Reason string
	cause  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed dataset row at line %d: %s", e.Line, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return e.cause }

// Is makes errors.Is(err, ErrMalformedRow) match.
func (e *MalformedRowError) Is(target error) bool { return target == ErrMalformedRow }
