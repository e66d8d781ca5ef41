// Package bind decodes JSON request bodies and validates them with the shared validator
package bind

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"
	"likert/internal/platform/validate"
)

// DefaultMaxBytes caps a body when Options.MaxBytes is zero; a submission is a few hundred bytes
const DefaultMaxBytes = 64 << 10

// Options tune ParseJSON; the zero value is strict
type Options struct {
	MaxBytes     int64 // zero means DefaultMaxBytes, negative means no cap
	AllowUnknown bool  // accept fields T does not declare
	AllowEmpty   bool  // an empty body yields the zero T
}

// ParseJSON decodes the body into T and validates it. Numbers in any typed fields stay
// json.Number. Decode failures carry ErrorCodeJSON; failed rules carry
// ErrorCodeValidation with one detail per field
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	var zero T
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("close request body")
		}
	}()

	var body io.Reader = r.Body
	switch {
	case o.MaxBytes == 0:
		body = io.LimitReader(body, DefaultMaxBytes)
	case o.MaxBytes > 0:
		body = io.LimitReader(body, o.MaxBytes)
	}
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		if o.AllowEmpty || r.Method == http.MethodGet || r.Method == http.MethodHead {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	ds, err := validate.Check(dst)
	if err != nil {
		logger.C(r.Context()).Error().Err(err).Msg("validator rejected target type")
		return zero, perr.JSONErrf("body cannot be validated")
	}
	if len(ds) > 0 {
		return zero, validate.Error(ds)
	}
	return dst, nil
}
