package schema

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed = errors.New("malformed record")
	ErrTooLong   = errors.New("line exceeds maximum length")
)

type DecodeErrorKind uint8

const (
	Malformed DecodeErrorKind = iota + 1
	TooLong
)

// Per-line decode failure. Never carries a partial record.
type DecodeError struct {
	Kind   DecodeErrorKind
	Line   uint64 // 1-based line number within the channel, 0 when unknown
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	var kind error = ErrMalformed
	if e.Kind == TooLong {
		kind = ErrTooLong
	}

	text := kind.Error()
	if e.Line > 0 {
		text = fmt.Sprintf("line %d: %s", e.Line, text)
	}
	if e.Reason != "" {
		text += ": " + e.Reason
	}
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}
	return text
}

// Matches ErrMalformed/ErrTooLong as well as the wrapped cause
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrTooLong:
		return e.Kind == TooLong
	}
	return false
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func malformed(reason string, err error) (decodeErr *DecodeError) {
	decodeErr = &DecodeError{Kind: Malformed, Reason: reason, Err: err}
	return
}
