package record

import "fmt"

// ValidationError is returned when a field is present but fails its
// structural check. It is always raised at construction time; a User or
// Address never exists in a partially valid state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// MissingFieldError is returned when a required field is absent from a
// primitive mapping. Distinct from ValidationError: the field is missing,
// not present-but-invalid.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
