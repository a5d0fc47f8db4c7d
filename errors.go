package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSource is returned when a schema or a Configure call names
	// a source that has never been registered.
	ErrUnknownSource = errors.New("settings source not registered")

	// ErrSourceConflict is returned when a name is re-registered with a
	// different concrete source type. Re-registering the same type is a no-op.
	ErrSourceConflict = errors.New("settings source registered with different type")

	// ErrSourceConfigured is returned when Configure is called for an
	// environment after the source has already served a fetch for it.
	ErrSourceConfigured = errors.New("settings source already in use for environment")

	// ErrConfigNotFound is returned when a configured local config file
	// does not exist. It is fatal for the resolution attempt.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrSourceUnavailable marks I/O or network failures while fetching.
	// A resolution that hits it is aborted; no partial instance is produced.
	ErrSourceUnavailable = errors.New("settings source unavailable")
)

// SchemaError reports an invalid schema declaration. It is detected when the
// schema is first built and is fatal; the declaring type cannot be resolved.
type SchemaError struct {
	Type   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema %s: %s", e.Type, e.Reason)
}

// FieldError describes one field that failed validation: the logical field
// name, the raw value handed to the coercion step (nil if missing), and the
// reason (e.g. "invalid int", "required value is missing").
type FieldError struct {
	Field  string
	Raw    any
	Reason string
}

func (e FieldError) String() string {
	if e.Raw == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (raw value %q)", e.Field, e.Reason, fmt.Sprintf("%v", e.Raw))
}

// ValidationError aggregates every failing field of one resolution attempt.
// Validation never stops at the first failure.
type ValidationError struct {
	Type   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Type, strings.Join(parts, "; "))
}

// Field returns the error for the named field, if present.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}
