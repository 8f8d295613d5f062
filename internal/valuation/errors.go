package valuation

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidInput is wrapped by every setter rejection. State is left unchanged.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnresolvedBracket marks a bracket table that does not cover a market value.
	ErrUnresolvedBracket = errors.New("unresolved assessment bracket")
)

// InputError describes a rejected field value.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, value, reason string) error {
	return &InputError{Field: field, Value: value, Reason: reason}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
