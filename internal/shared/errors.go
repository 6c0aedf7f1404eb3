package shared

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the request clashes with current state.
	ErrConflict = errors.New("conflict")
)

// ValidationError is a user-correctable input problem. It never wraps an
// infrastructure error so its message is safe to show to store staff.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors groups several field problems from one input.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for grouped errors.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Fields flattens the errors into a field → message map for responses.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		key := fe.Field
		if key == "" {
			key = "general"
		}
		out[key] = fe.Message
	}
	return out
}

// UserSafeMessage returns a message that can be shown to end users.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested data was not found"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrIdempotencyConflict):
		return "The request has already been processed"
	}
	return "Something went wrong, please try again"
}
