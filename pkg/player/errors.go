package player

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a change would break a record invariant
	ErrValidation = errors.New("invalid player record")

	// ErrCorruptRecord is returned when a persisted record is missing fields,
	// has mistyped fields or does not match the catalog
	ErrCorruptRecord = errors.New("corrupt player record")
)

// ValidationError describes a rejected change to a record
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CorruptRecordError describes a persisted record that could not be decoded
type CorruptRecordError struct {
	Location string
	Reason   string
	Err      error
}

func (e *CorruptRecordError) Error() string {
	msg := ErrCorruptRecord.Error()
	if e.Location != "" {
		msg += " " + e.Location
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrCorruptRecord and the underlying cause
func (e *CorruptRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCorruptRecord}
	}
	return []error{ErrCorruptRecord, e.Err}
}

func corrupt(err error, format string, args ...interface{}) error {
	return &CorruptRecordError{Reason: fmt.Sprintf(format, args...), Err: err}
}
