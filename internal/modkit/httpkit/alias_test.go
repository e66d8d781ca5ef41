package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "likert/internal/platform/errors"
)

type ackIn struct {
	Q1   int    `json:"q1" validate:"min=1,max=5"`
	Role string `json:"role" validate:"required"`
}

func serve(t *testing.T, h Handler, method, body string) (int, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, "/survey/responses", strings.NewReader(body)))
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func TestCall(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*http.Request) (any, error)
		want int
		code perr.ErrorCode
	}{
		{"plain value", func(*http.Request) (any, error) { return map[string]int{"total": 3}, nil }, http.StatusOK, 0},
		{"response passthrough", func(*http.Request) (any, error) { return Created("made"), nil }, http.StatusCreated, 0},
		{"project error", func(*http.Request) (any, error) { return nil, perr.Unavailablef("store down") }, http.StatusServiceUnavailable, perr.ErrorCodeUnavailable},
		{"foreign error", func(*http.Request) (any, error) { return nil, errors.New("nah") }, http.StatusInternalServerError, perr.ErrorCodeUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, env := serve(t, Call(c.fn), http.MethodGet, "")
			if got != c.want || env.Code != c.code {
				t.Fatalf("status=%d code=%v, want %d %v", got, env.Code, c.want, c.code)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var seen ackIn
	h := JSON(func(_ *http.Request, in ackIn) (any, error) {
		seen = in
		return Created(map[string]string{"role": in.Role}), nil
	})

	cases := []struct {
		name, body string
		want       int
		code       perr.ErrorCode
	}{
		{"valid", `{"q1":4,"role":"Analyst"}`, http.StatusCreated, 0},
		{"out of range", `{"q1":9,"role":"Analyst"}`, http.StatusBadRequest, perr.ErrorCodeValidation},
		{"missing role", `{"q1":2}`, http.StatusBadRequest, perr.ErrorCodeValidation},
		{"malformed", `{`, http.StatusBadRequest, perr.ErrorCodeJSON},
		{"unknown field", `{"q1":1,"role":"x","q9":1}`, http.StatusBadRequest, perr.ErrorCodeJSON},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, env := serve(t, h, http.MethodPost, c.body)
			if got != c.want || env.Code != c.code {
				t.Fatalf("status=%d code=%v body=%+v", got, env.Code, env)
			}
		})
	}
	if seen.Q1 != 4 || seen.Role != "Analyst" {
		t.Fatalf("handler saw %+v", seen)
	}
}

func TestFileSkipsEnvelope(t *testing.T) {
	h := Call(func(*http.Request) (any, error) {
		return File(Blob{ContentType: "text/csv", Filename: "likert-responses-2025-03-01.csv", Data: []byte("submitted_at\n")}), nil
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/survey/export", nil))
	if rec.Body.String() != "submitted_at\n" || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("blob = %q %q", rec.Body.String(), rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "likert-responses-2025-03-01.csv") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
}
