package content

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrDuplicatePage         = errors.New("page already exists")
	ErrInvalidPageName       = errors.New("invalid page name")
	ErrInvalidSectionType    = errors.New("invalid section type")
	ErrNotFound              = errors.New("not found")
	ErrDuplicateSection      = errors.New("section id already in use")
	ErrRepositoryUnavailable = errors.New("content repository unavailable")
	ErrValidation            = errors.New("validation failed")
	ErrUnknownField          = errors.New("unknown field")
)

// Reasons reported in FieldError.
const (
	ReasonUnknownField = "unknown field"
	ReasonRequired     = "required"
	ReasonWrongKind    = "invalid value"
	ReasonInvalidURL   = "invalid url"
	ReasonOutOfRange   = "index out of range"
)

// FieldError is one (field, reason) validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Reason }

// ValidationError carries every failure found by a single operation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches ErrValidation always and ErrUnknownField when at least one
// failure is an unknown field.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrUnknownField:
		for _, fe := range e.Errors {
			if fe.Reason == ReasonUnknownField {
				return true
			}
		}
	}
	return false
}

// Fields lists the field paths that failed, in reporting order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Field
	}
	return out
}

func validationError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// FieldErrors extracts the failure list from err, or nil.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}

func itoa(i int) string { return strconv.Itoa(i) }
