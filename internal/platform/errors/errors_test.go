package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeTable(t *testing.T) {
	cases := []struct {
		code   ErrorCode
		name   string
		status int
	}{
		{ErrorCodeUnknown, "unknown", http.StatusInternalServerError},
		{ErrorCodePanic, "panic", http.StatusInternalServerError},
		{ErrorCodeUnavailable, "unavailable", http.StatusServiceUnavailable},
		{ErrorCodeUnauthorized, "unauthorized", http.StatusUnauthorized},
		{ErrorCodeForbidden, "forbidden", http.StatusForbidden},
		{ErrorCodeInvalidArgument, "invalid_argument", http.StatusUnprocessableEntity},
		{ErrorCodeValidation, "validation", http.StatusBadRequest},
		{ErrorCodeJSON, "json", http.StatusBadRequest},
		{ErrorCodeNotFound, "not_found", http.StatusNotFound},
		{ErrorCodeDuplicateKey, "duplicate_key", http.StatusConflict},
		{ErrorCodeSchemaMismatch, "schema_mismatch", http.StatusInternalServerError},
		{ErrorCode(999), "unknown", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if c.code.String() != c.name || HTTPStatusCode(c.code) != c.status {
			t.Fatalf("%d: got %q/%d, want %q/%d", c.code, c.code.String(), HTTPStatusCode(c.code), c.name, c.status)
		}
	}
	// codes are part of the wire format
	if ErrorCodeValidation != 8 || ErrorCodeSchemaMismatch != 13 {
		t.Fatalf("code values moved")
	}
}

func TestError_WrapAndRender(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	cause := stderrs.New("disk full")
	err := Wrapf(cause, ErrorCodeUnavailable, "append %d rows", 2)
	if err.Error() != "append 2 rows: disk full" || !stderrs.Is(err, cause) {
		t.Fatalf("wrap = %q", err.Error())
	}

	chained := fmt.Errorf("repo: %w", err)
	if CodeOf(chained) != ErrorCodeUnavailable || HTTPStatus(chained) != http.StatusServiceUnavailable {
		t.Fatalf("code lost through fmt wrapping")
	}
	if CodeOf(cause) != ErrorCodeUnknown || IsCode(nil, ErrorCodeDB) {
		t.Fatalf("foreign errors should be unknown")
	}
}

func TestMutatorsCopyOnWrite(t *testing.T) {
	base := Validationf("invalid response")
	one := WithDetails(base, Detail{Field: "q1", Message: "q1 is a required field"})
	two := WithOp(WithField(WithDetails(one, Detail{Field: "q2", Message: "q2 must be 5 or less"}), "q1"), "submit")

	if len(DetailsOf(base)) != 0 || len(DetailsOf(one)) != 1 || OpOf(one) != "" {
		t.Fatalf("mutators leaked into earlier values")
	}
	e, ok := As(two)
	if !ok || e.Field() != "q1" || e.Op() != "submit" || len(e.Details()) != 2 {
		t.Fatalf("got %+v", e)
	}

	plain := stderrs.New("plain")
	if WithOp(plain, "x") != plain || DetailsOf(plain) != nil || OpOf(plain) != "" {
		t.Fatalf("foreign errors should pass through")
	}
}

func TestWireFrom(t *testing.T) {
	if !WireFrom(nil).IsZero() {
		t.Fatalf("nil should be the zero wire")
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign wire = %+v", w)
	}

	err := WithOp(Wrap(stderrs.New("secret dsn"), ErrorCodeUnavailable, "store unavailable"), "read_all")
	w := WireFrom(err)
	if w.Message != "store unavailable" || w.Op != "read_all" || w.IsZero() {
		t.Fatalf("wire = %+v", w)
	}
}

func TestSugar(t *testing.T) {
	cases := map[ErrorCode]error{
		ErrorCodeInvalidArgument: InvalidArgf("x"),
		ErrorCodeJSON:            JSONErrf("x"),
		ErrorCodePanic:           PanicErrf("x"),
		ErrorCodeUnauthorized:    Unauthorizedf("x"),
		ErrorCodeForbidden:       Forbiddenf("x"),
		ErrorCodeUnavailable:     Unavailablef("x"),
		ErrorCodeSchemaMismatch:  SchemaMismatchf("x"),
		ErrorCodeValidation:      Validationf("x"),
		ErrorCodeNotFound:        ErrNotFound,
	}
	for want, err := range cases {
		if !IsCode(err, want) {
			t.Fatalf("%v: got %v", want, CodeOf(err))
		}
	}
}
