package httpkit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recorded struct {
	method, route string
	status        int
}

type memRecorder struct {
	mu  sync.Mutex
	obs []recorded
}

func (m *memRecorder) HTTP(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, recorded{method, route, status})
}

func applyStack(h http.Handler, stack []func(http.Handler) http.Handler) http.Handler {
	for i := len(stack) - 1; i >= 0; i-- { // outermost first
		h = stack[i](h)
	}
	return h
}

func TestCommonStack_RequestReachesHandler(t *testing.T) {
	rec := &memRecorder{}
	hit := 0
	root := applyStack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit++
		w.WriteHeader(http.StatusNoContent)
	}), CommonStack(StackOptions{Metrics: rec}))

	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/survey/stats", nil))

	if hit != 1 || rr.Code != http.StatusNoContent {
		t.Fatalf("hit=%d code=%d", hit, rr.Code)
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("expected no-cache headers")
	}
	if len(rec.obs) != 1 || rec.obs[0].status != http.StatusNoContent {
		t.Fatalf("metrics observations = %+v", rec.obs)
	}
}

func TestCommonStack_PanicIsCountedAs500(t *testing.T) {
	rec := &memRecorder{}
	root := applyStack(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), CommonStack(StackOptions{Metrics: rec}))

	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if len(rec.obs) != 1 || rec.obs[0].status != http.StatusInternalServerError {
		t.Fatalf("metrics observations = %+v", rec.obs)
	}
}

func TestCommonStack_PingHeartbeat(t *testing.T) {
	root := applyStack(http.NotFoundHandler(), CommonStack(StackOptions{}))

	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /ping to be 200, got %d", rr.Code)
	}
}

func TestCommonStack_CORSOnlyWhenConfigured(t *testing.T) {
	preflight := func(stack []func(http.Handler) http.Handler) *httptest.ResponseRecorder {
		root := applyStack(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), stack)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/survey/responses", nil)
		req.Header.Set("Origin", "https://survey.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		root.ServeHTTP(rr, req)
		return rr
	}

	if got := preflight(CommonStack(StackOptions{})).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("CORS should be off by default, got %q", got)
	}
	on := preflight(CommonStack(StackOptions{CORSOrigins: []string{"https://survey.example"}}))
	if got := on.Header().Get("Access-Control-Allow-Origin"); got != "https://survey.example" {
		t.Fatalf("allow origin = %q", got)
	}
}
