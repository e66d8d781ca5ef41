package schema

import (
	"fmt"
	"strings"

	perr "likert/internal/platform/errors"
	"likert/internal/platform/validate"
)

// Problem names one rejected field
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"message"`
}

// ValidationError lists every field that blocked a submission
type ValidationError struct {
	Version  string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Reason
	}
	return "invalid response: " + strings.Join(parts, "; ")
}

// Unwrap exposes the platform validation error so transports map it to 400 with details
func (e *ValidationError) Unwrap() error {
	ds := make([]perr.Detail, len(e.Problems))
	for i, p := range e.Problems {
		ds[i] = perr.Detail{Field: p.Field, Message: p.Reason}
	}
	return validate.Error(ds)
}

// Fields returns the offending field ids in report order
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Field
	}
	return out
}

// MalformedError is a stored row that maps onto no usable record
type MalformedError struct {
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return "malformed row: " + e.Reason
	}
	return fmt.Sprintf("malformed row: %s: %s", e.Field, e.Reason)
}

func malformed(field, format string, a ...any) error {
	return &MalformedError{Field: field, Reason: fmt.Sprintf(format, a...)}
}
