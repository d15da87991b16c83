package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyMarked is returned by Mark for a label already recorded in the session.
	ErrAlreadyMarked = errors.New("already marked this session")

	// ErrWriteFailure is matched (via errors.Is) by every *WriteError.
	ErrWriteFailure = errors.New("attendance write failure")

	// ErrMalformedLine is returned when an attendance log line cannot be parsed.
	ErrMalformedLine = errors.New("malformed attendance line")
)

// WriteError reports that a record could not be appended to the store.
type WriteError struct {
	Label string
	cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write attendance for %q: %v", e.Label, e.cause)
}

func (e *WriteError) Unwrap() error { return e.cause }

// Is makes errors.Is(err, ErrWriteFailure) match.
func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }
