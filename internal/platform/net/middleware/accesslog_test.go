package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"likert/internal/platform/logger"
	"likert/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
)

func TestAccessLog_PassesResponseThrough(t *testing.T) {
	cases := []struct {
		name string
		slow time.Duration
		h    http.HandlerFunc
		code int
		body string
	}{
		{"created", 0, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"ok":true}`)
		}, http.StatusCreated, `{"ok":true}`},
		{"implicit 200 in two writes", 0, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("submitted_at,"))
			_, _ = w.Write([]byte("q1\n"))
		}, http.StatusOK, "submitted_at,q1\n"},
		{"slow", time.Nanosecond, func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(50 * time.Microsecond)
			_, _ = io.WriteString(w, "late")
		}, http.StatusOK, "late"},
		{"server error", 0, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, http.StatusServiceUnavailable, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: c.slow})(c.h).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/survey/stats", nil))
			if rr.Code != c.code || rr.Body.String() != c.body {
				t.Fatalf("code=%d body=%q", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAccessLog_SeedsRequestLoggerUnderChi(t *testing.T) {
	var seen bool
	m := chi.NewRouter()
	m.Use(middleware.RequestID(), middleware.AccessLogZerolog(middleware.AccessLogOptions{}))
	m.Get("/api/v1/survey/schema", func(w http.ResponseWriter, r *http.Request) {
		seen = logger.C(r.Context()) != nil
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/survey/schema", nil))
	if !seen || rr.Code != http.StatusNoContent {
		t.Fatalf("seen=%v code=%d", seen, rr.Code)
	}
}
