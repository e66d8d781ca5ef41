package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kit "likert/internal/platform/testkit"
)

const legacyCSV = "timestamp,q1,q2,q3,role,link\n" +
	"2024-05-01 10:00:00,4,2,5,Analyst,https://example.com/in/a\n" +
	"2024-05-01 11:00:00,2,2,1,Executive,\n" +
	"not a time,3,3,3,,\n"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), errb.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	kit.Serial(t)
	path := filepath.Join(t.TempDir(), "responses.csv")
	if err := os.WriteFile(path, []byte(legacyCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIKERT_STORE_DRIVER", "csv")
	t.Setenv("LIKERT_CSV_PATH", path)
	t.Setenv("LIKERT_SCHEMA_FILE", "")
	return path
}

func TestStats_JSON(t *testing.T) {
	seed(t)
	out, _, err := run(t, "stats", "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var st struct {
		Total          int                 `json:"total"`
		MalformedCount int                 `json:"malformed_count"`
		PerQuestion    map[string]*float64 `json:"per_question"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if st.Total != 2 || st.MalformedCount != 1 || *st.PerQuestion["q1"] != 3 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestStats_Table(t *testing.T) {
	seed(t)
	out, _, err := run(t, "stats")
	if err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out, "responses")
	kit.MustContain(t, out, "AI Confidence")
	kit.MustContain(t, out, "Executive")
}

func TestExport_ToDirectory(t *testing.T) {
	seed(t)
	dir := t.TempDir()
	_, errOut, err := run(t, "export", "-o", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	kit.MustContain(t, errOut, "likert-responses-")

	matches, _ := filepath.Glob(filepath.Join(dir, "likert-responses-*.csv"))
	if len(matches) != 1 {
		t.Fatalf("files = %v", matches)
	}
	b, _ := os.ReadFile(matches[0])
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "submitted_at,response_id,schema_version,q1") {
		t.Fatalf("export = %q", b)
	}
}

func TestRepair_NeedsConfirmation(t *testing.T) {
	path := seed(t)
	if _, _, err := run(t, "repair"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("repair without --yes = %v", err)
	}

	out, _, err := run(t, "repair", "--yes")
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	kit.MustContain(t, out, `"timestamp": "submitted_at"`)
	kit.MustContain(t, out, `"link": "contact"`)

	b, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(b), "submitted_at,") {
		t.Fatalf("store not rewritten: %q", b)
	}
	// the malformed row survives the rewrite
	kit.MustContain(t, string(b), "not a time")
}

func TestSchema_YAML(t *testing.T) {
	seed(t)
	out, _, err := run(t, "schema")
	if err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out, "version: v2")
	if strings.Contains(out, "version: v1") {
		t.Fatal("only the current revision expected")
	}

	out, _, _ = run(t, "schema", "--all")
	kit.MustContain(t, out, "version: v1")
}

func TestUnknownDriverFails(t *testing.T) {
	kit.Serial(t)
	t.Setenv("LIKERT_STORE_DRIVER", "tape")
	if _, _, err := run(t, "stats"); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
