package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"likert/internal/adapters/tabular"
	"likert/internal/adapters/tabular/memory"
	"likert/internal/modkit/httpkit"
	perr "likert/internal/platform/errors"
	phttp "likert/internal/platform/net/http"
	"likert/internal/services/responses/repo"
	"likert/internal/services/responses/service"

	"github.com/go-chi/chi/v5"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Error      string          `json:"error"`
	Details    []perr.Detail   `json:"details"`
	Data       json.RawMessage `json:"data"`
}

func mount(t *testing.T, a tabular.Adapter) stdhttp.Handler {
	t.Helper()
	svc := service.New(repo.New(a, nil, repo.WithCacheTTL(0)), nil, nil)
	m := chi.NewRouter()
	phttp.AdaptChi(m).Route("/survey", func(r httpkit.Router) {
		Register(r, svc, httpkit.NewPortFunc(httpkit.StaticToken("s3cret", "admin")))
	})
	return m
}

func do(t *testing.T, h stdhttp.Handler, method, path, body string, hdr ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

const good = `{"answers":{"q1":4,"q2":"2","q3":5},"meta":{"role":"analyst"}}`

func TestSubmitThenList(t *testing.T) {
	h := mount(t, memory.New())

	rec, env := do(t, h, "POST", "/survey/responses", good)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("submit = %d %s", rec.Code, rec.Body.String())
	}
	var ack struct {
		ResponseID string `json:"response_id"`
	}
	if err := json.Unmarshal(env.Data, &ack); err != nil || ack.ResponseID == "" {
		t.Fatalf("ack = %s %v", env.Data, err)
	}

	rec, env = do(t, h, "GET", "/survey/responses", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var l struct {
		Records []struct {
			ID   string            `json:"id"`
			Meta map[string]string `json:"meta"`
		} `json:"records"`
		MalformedCount int `json:"malformed_count"`
	}
	if err := json.Unmarshal(env.Data, &l); err != nil {
		t.Fatal(err)
	}
	if len(l.Records) != 1 || l.Records[0].ID != ack.ResponseID || l.Records[0].Meta["role"] != "Analyst" {
		t.Fatalf("listing = %+v", l)
	}
}

func TestSubmit_ValidationDetails(t *testing.T) {
	a := memory.New()
	h := mount(t, a)

	rec, env := do(t, h, "POST", "/survey/responses", `{"answers":{"q1":9,"q3":"x"}}`)
	if rec.Code != stdhttp.StatusBadRequest || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("got %d code=%d", rec.Code, env.Code)
	}
	if len(env.Details) != 3 {
		t.Fatalf("details = %+v", env.Details)
	}
	if len(a.Snapshot().Rows) != 0 {
		t.Fatal("nothing may be written")
	}
}

func TestSubmit_BadBody(t *testing.T) {
	h := mount(t, memory.New())
	for name, body := range map[string]string{
		"empty":   "",
		"garbage": "{",
		"unknown": `{"answers":{"q1":1},"extra":true}`,
	} {
		rec, _ := do(t, h, "POST", "/survey/responses", body)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestSubmit_StoreUnavailable(t *testing.T) {
	a := memory.New(memory.WithAtomicAppend())
	a.Fail(tabular.OpAppend, errors.New("connection reset"))
	rec, env := do(t, mount(t, a), "POST", "/survey/responses", good)
	if rec.Code != stdhttp.StatusServiceUnavailable || env.Code != perr.ErrorCodeUnavailable {
		t.Fatalf("got %d %+v", rec.Code, env)
	}
}

func TestStats_AlwaysOK(t *testing.T) {
	a := memory.New()
	a.Fail(tabular.OpReadAll, errors.New("down"))
	rec, env := do(t, mount(t, a), "GET", "/survey/stats", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var st struct {
		Total   int    `json:"total"`
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(env.Data, &st); err != nil || st.Warning == "" || st.Total != 0 {
		t.Fatalf("stats = %s %v", env.Data, err)
	}
}

func TestExport_Headers(t *testing.T) {
	h := mount(t, memory.New())
	if rec, _ := do(t, h, "POST", "/survey/responses", good); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("seed = %d", rec.Code)
	}

	rec, _ := do(t, h, "GET", "/survey/export", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=likert-responses-") {
		t.Fatalf("disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "submitted_at,response_id,") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestSchema(t *testing.T) {
	rec, env := do(t, mount(t, memory.New()), "GET", "/survey/schema", "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(string(env.Data), `"q1"`) {
		t.Fatalf("schema = %d %s", rec.Code, env.Data)
	}
}

func TestRepair_RequiresToken(t *testing.T) {
	a := memory.New(memory.WithTable(tabular.Table{
		Header: []string{"timestamp", "q1", "q2", "q3"},
		Rows:   []tabular.Row{{"timestamp": "2024-01-01 09:00:00", "q1": "2", "q2": "2", "q3": "2"}},
	}))
	h := mount(t, a)

	if rec, _ := do(t, h, "POST", "/survey/admin/repair", ""); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec, _ := do(t, h, "POST", "/survey/admin/repair", "", "Authorization", "Bearer nope"); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("bad token = %d", rec.Code)
	}
	rec, env := do(t, h, "POST", "/survey/admin/repair", "", "Authorization", "Bearer s3cret")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("repair = %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"timestamp":"submitted_at"`) {
		t.Fatalf("report = %s", env.Data)
	}
	if got := a.Snapshot().Header[0]; got != "submitted_at" {
		t.Fatalf("header[0] = %q", got)
	}
}

func TestRegister_NilAdminLeavesRepairUnmounted(t *testing.T) {
	m := chi.NewRouter()
	svc := service.New(repo.New(memory.New(), nil), nil, nil)
	phttp.AdaptChi(m).Route("/survey", func(r httpkit.Router) { Register(r, svc, nil) })

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("POST", "/survey/admin/repair", nil))
	if rec.Code != stdhttp.StatusNotFound && rec.Code != stdhttp.StatusMethodNotAllowed {
		t.Fatalf("repair reachable without admin port: %d", rec.Code)
	}
}
