package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pnet "likert/internal/platform/net"
	"likert/internal/platform/net/middleware"
)

type portFunc func(*http.Request) (string, error)

func (f portFunc) Parse(r *http.Request) (string, error) { return f(r) }

func TestAuth_SetsActorOnSuccess(t *testing.T) {
	port := portFunc(func(*http.Request) (string, error) { return "ops", nil })
	fail := func(http.ResponseWriter, *http.Request, error) { t.Fatal("fail should not be called") }

	var got string
	h := middleware.Auth(port, fail)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = pnet.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/repair", nil))

	if rr.Code != http.StatusNoContent || got != "ops" {
		t.Fatalf("code=%d actor=%q", rr.Code, got)
	}
}

func TestAuth_FailShortCircuits(t *testing.T) {
	denied := errors.New("denied")
	port := portFunc(func(*http.Request) (string, error) { return "", denied })

	var seen error
	fail := func(w http.ResponseWriter, _ *http.Request, err error) {
		seen = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	h := middleware.Auth(port, fail)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not run")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/repair", nil))

	if rr.Code != http.StatusUnauthorized || !errors.Is(seen, denied) {
		t.Fatalf("code=%d err=%v", rr.Code, seen)
	}
}
