package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// tag appends name to X-Trail so tests can see which middleware ran and in what order
func tag(name string) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Add("X-Trail", name)
			next.ServeHTTP(w, r)
		})
	}
}

func say(body string) Handler {
	return func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = w.Write([]byte(body)) }
}

func TestAdaptChi_MountsAndScopesMiddleware(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	r.Use(tag("root"))
	r.Get("/", say("dashboard"))
	r.Post("/", say("submitted"))
	r.Handle("/metrics", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte("# HELP"))
	}))

	r.Route("/api/v1", func(v1 Router) {
		v1.Use(tag("v1"))
		if v1.Mux() == nil {
			t.Fatal("route router has no mux")
		}
		v1.Route("/survey", func(s Router) {
			s.Get("/stats", say("stats"))
			s.Group(func(g Router) {
				g.Use(tag("admin"))
				g.Post("/admin/repair", say("repaired"))
			})
		})
	})

	cases := []struct {
		method, path string
		code         int
		body, trail  string
	}{
		{stdhttp.MethodGet, "/", 200, "dashboard", "root"},
		{stdhttp.MethodPost, "/", 200, "submitted", "root"},
		{stdhttp.MethodGet, "/metrics", 200, "# HELP", "root"},
		{stdhttp.MethodGet, "/api/v1/survey/stats", 200, "stats", "root,v1"},
		{stdhttp.MethodPost, "/api/v1/survey/admin/repair", 200, "repaired", "root,v1,admin"},
		{stdhttp.MethodGet, "/api/v1/survey/admin/repair", 405, "", "root,v1"},
		{stdhttp.MethodGet, "/api/v1/nope", 404, "", "root,v1"},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, httptest.NewRequest(c.method, c.path, nil))
		if rr.Code != c.code {
			t.Fatalf("%s %s code = %d, want %d", c.method, c.path, rr.Code, c.code)
		}
		if c.body != "" && rr.Body.String() != c.body {
			t.Fatalf("%s %s body = %q, want %q", c.method, c.path, rr.Body.String(), c.body)
		}
		if got := strings.Join(rr.Header().Values("X-Trail"), ","); got != c.trail {
			t.Fatalf("%s %s trail = %q, want %q", c.method, c.path, got, c.trail)
		}
	}
}

func TestAdaptChi_GroupDoesNotLeakMiddleware(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	r.Group(func(g Router) {
		g.Use(tag("guarded"))
		g.Get("/inside", say("in"))
	})
	r.Get("/outside", say("out"))

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/outside", nil))
	if rr.Body.String() != "out" || rr.Header().Get("X-Trail") != "" {
		t.Fatalf("group middleware leaked: body=%q trail=%q", rr.Body.String(), rr.Header().Get("X-Trail"))
	}
}
