// Package errors carries the structured error every layer returns: a stable code,
// a message, an optional field, the operation that failed and per field details
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine facing classification; values are part of the wire format
type ErrorCode uint16

// Codes in wire order; append only
const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable // store or dependency down, retry may succeed
	ErrorCodeTooManyRequests
	ErrorCodeConflict
	ErrorCodeUnauthorized
	ErrorCodeForbidden
	ErrorCodeInvalidArgument
	ErrorCodeValidation // one or more answers failed the form rules
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
	ErrorCodeSchemaMismatch // store reachable but its layout is not tabular as expected
)

type codeInfo struct {
	name   string
	status int
}

var codes = [...]codeInfo{
	ErrorCodeUnknown:         {"unknown", http.StatusInternalServerError},
	ErrorCodePanic:           {"panic", http.StatusInternalServerError},
	ErrorCodeUnavailable:     {"unavailable", http.StatusServiceUnavailable},
	ErrorCodeTooManyRequests: {"too_many_requests", http.StatusTooManyRequests},
	ErrorCodeConflict:        {"conflict", http.StatusConflict},
	ErrorCodeUnauthorized:    {"unauthorized", http.StatusUnauthorized},
	ErrorCodeForbidden:       {"forbidden", http.StatusForbidden},
	ErrorCodeInvalidArgument: {"invalid_argument", http.StatusUnprocessableEntity},
	ErrorCodeValidation:      {"validation", http.StatusBadRequest},
	ErrorCodeJSON:            {"json", http.StatusBadRequest},
	ErrorCodeNotFound:        {"not_found", http.StatusNotFound},
	ErrorCodeDuplicateKey:    {"duplicate_key", http.StatusConflict},
	ErrorCodeDB:              {"db", http.StatusInternalServerError},
	ErrorCodeSchemaMismatch:  {"schema_mismatch", http.StatusInternalServerError},
}

func (c ErrorCode) info() codeInfo {
	if int(c) < len(codes) {
		return codes[c]
	}
	return codes[ErrorCodeUnknown]
}

// String is the lower case name used in logs and metric labels
func (c ErrorCode) String() string { return c.info().name }

// HTTPStatusCode maps a code to its response status, 500 for anything unknown
func HTTPStatusCode(c ErrorCode) int { return c.info().status }

// ErrNotFound is returned by single row lookups that match nothing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the project error. Copies are cheap; mutators never touch the receiver
type Error struct {
	orig    error
	msg     string
	code    ErrorCode
	field   string
	op      string
	details []Detail
}

// Detail names one offending field and why it was rejected
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Wire is the JSON form returned inside the response envelope
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Op      string    `json:"op,omitempty"`
	Details []Detail  `json:"details,omitempty"`
}

// IsZero reports whether w carries no error
func (w Wire) IsZero() bool {
	return w.Code == ErrorCodeUnknown && w.Message == "" && w.Field == "" && w.Op == "" && len(w.Details) == 0
}

// Error renders the message followed by the cause
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig != nil:
		return e.msg + ": " + e.orig.Error()
	default:
		return e.msg
	}
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Details returns a copy of the per field details
func (e *Error) Details() []Detail { return append([]Detail(nil), e.details...) }

// WireFrom renders any error for the envelope; the wrapped cause stays server side
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	e, ok := As(err)
	if !ok {
		return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
	}
	return Wire{Code: e.code, Message: e.msg, Field: e.field, Op: e.op, Details: e.Details()}
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf extracts the code from any error, Unknown for foreign ones
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// edit copies the *Error in err, applies fn and returns the copy; foreign errors pass through
func edit(err error, fn func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	fn(&c)
	return &c
}

// WithField attaches the offending field
func WithField(err error, field string) error {
	return edit(err, func(e *Error) { e.field = field })
}

// WithOp labels the operation that failed
func WithOp(err error, op string) error {
	return edit(err, func(e *Error) { e.op = op })
}

// WithDetails appends per field details
func WithDetails(err error, ds ...Detail) error {
	return edit(err, func(e *Error) { e.details = append(e.Details(), ds...) })
}

// DetailsOf returns the per field details carried by err
func DetailsOf(err error) []Detail {
	if e, ok := As(err); ok {
		return e.Details()
	}
	return nil
}

// OpOf returns the operation label carried by err
func OpOf(err error) string {
	if e, ok := As(err); ok {
		return e.op
	}
	return ""
}

// New returns an *Error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error with code and message whose cause is orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// JSONErrf returns a malformed body error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns the error recovered panics are reported as
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Forbiddenf returns a forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// SchemaMismatchf returns a store layout mismatch error
func SchemaMismatchf(format string, a ...any) error {
	return Newf(ErrorCodeSchemaMismatch, format, a...)
}

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }
