package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	perr "likert/internal/platform/errors"
	"likert/internal/platform/net/middleware"
	kit "likert/internal/platform/testkit"
)

func TestRecover(t *testing.T) {
	var failed error
	fail := func(w http.ResponseWriter, _ *http.Request, err error) {
		failed = err
		w.WriteHeader(perr.HTTPStatus(err))
	}
	h := middleware.RequestID()(middleware.Recover(fail)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("tally exploded")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/survey/stats", nil)
	req.Header.Set("X-Request-Id", "rid-panic")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError || !perr.IsCode(failed, perr.ErrorCodePanic) {
		t.Fatalf("code=%d err=%v", rr.Code, failed)
	}
	if rr.Header().Get("X-Request-Id") != "rid-panic" {
		t.Fatalf("request id not mirrored: %q", rr.Header().Get("X-Request-Id"))
	}
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	h := middleware.Recover(func(http.ResponseWriter, *http.Request, error) {
		t.Fatal("fail must not run for ErrAbortHandler")
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	kit.MustPanic(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/export", nil))
	})
}

func TestRecover_PassThrough(t *testing.T) {
	h := middleware.Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/survey/responses", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("code = %d", rr.Code)
	}
}
