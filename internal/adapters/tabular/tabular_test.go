package tabular

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "likert/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

func TestUnionHeader_KeepsExistingThenFirstSeen(t *testing.T) {
	got := UnionHeader([]string{"submitted_at", "q1"}, []Row{
		{"q1": "3", "role": "Analyst", "submitted_at": "x"},
		{"contact": "c", "q1": "1"},
		{"role": "Other"},
	})
	want := []string{"submitted_at", "q1", "role", "contact"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestFromGrid(t *testing.T) {
	tbl, err := FromGrid(OpReadAll, [][]string{
		{" a ", "b"},
		{"1"},
		{"", "  "},
		{"3", "4", ""},
	})
	if err != nil {
		t.Fatalf("FromGrid: %v", err)
	}
	want := Table{Header: []string{"a", "b"}, Rows: []Row{{"a": "1", "b": ""}, {"a": "3", "b": "4"}}}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if tbl, err := FromGrid(OpReadAll, nil); err != nil || len(tbl.Header) != 0 {
		t.Fatalf("empty grid = %+v %v", tbl, err)
	}

	bad := map[string][][]string{
		"blank header":     {{"a", " "}},
		"duplicate header": {{"a", "a"}},
		"ragged row":       {{"a"}, {"1", "2"}},
	}
	for name, grid := range bad {
		_, err := FromGrid(OpReadAll, grid)
		if !IsSchemaMismatch(err) || perr.OpOf(err) != OpReadAll {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	in := Table{
		Header: []string{"a", "b"},
		Rows: []Row{
			{"a": "x, y", "b": "line\n\"two\""},
			{"a": "z", "extra": "kept"},
			{"a": " "},
		},
	}
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := DecodeCSV(OpReadAll, &buf)
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	want := Table{
		Header: []string{"a", "b", "extra"},
		Rows: []Row{
			{"a": "x, y", "b": "line\n\"two\"", "extra": ""},
			{"a": "z", "b": "", "extra": "kept"},
		},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if _, err := DecodeCSV(OpReadAll, strings.NewReader("a,\"b\n")); !IsSchemaMismatch(err) {
		t.Fatalf("broken quoting = %v", err)
	}
}

func TestClassify(t *testing.T) {
	if Classify(OpAppend, nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	dl := Classify(OpReadAll, context.DeadlineExceeded)
	if !IsUnavailable(dl) || perr.OpOf(dl) != OpReadAll {
		t.Fatalf("deadline = %v", dl)
	}
	foreign := Classify(OpAppend, errors.New("connection reset"))
	if !IsUnavailable(foreign) || perr.OpOf(foreign) != OpAppend {
		t.Fatalf("foreign = %v", foreign)
	}
	kept := Classify(OpAppend, StoreConflict(OpOverwriteAll, errors.New("412")))
	if !IsConflict(kept) || perr.OpOf(kept) != OpOverwriteAll {
		t.Fatalf("coded error rewritten: %v", kept)
	}
	tagged := Classify(OpAppend, perr.SchemaMismatchf("bad"))
	if !IsSchemaMismatch(tagged) || perr.OpOf(tagged) != OpAppend {
		t.Fatalf("op not attached: %v", tagged)
	}
}

func TestTableCloneAndCompact(t *testing.T) {
	in := Table{Header: []string{"a"}, Rows: []Row{{"a": "1"}, {"a": ""}}}
	c := in.Clone()
	c.Rows[0]["a"] = "changed"
	c.Header[0] = "z"
	if in.Rows[0]["a"] != "1" || in.Header[0] != "a" {
		t.Fatalf("clone shares memory")
	}
	if got := in.Compact(); len(got.Rows) != 1 {
		t.Fatalf("compact kept blank rows: %+v", got)
	}
}

func TestWithTimeout_NeverExtendsParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, stop := WithTimeout(parent, time.Hour)
	defer stop()
	if r := Remaining(ctx); r <= 0 || r > 50*time.Millisecond {
		t.Fatalf("remaining = %v", r)
	}

	ctx2, stop2 := WithTimeout(context.Background(), 0)
	defer stop2()
	if _, ok := ctx2.Deadline(); ok {
		t.Fatalf("zero timeout must not set a deadline")
	}

	ctx3, stop3 := WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop3()
	if r := Remaining(ctx3); r <= 0 || r > 20*time.Millisecond {
		t.Fatalf("remaining = %v", r)
	}
	if Remaining(context.Background()) != 0 {
		t.Fatalf("no deadline should report zero")
	}
}
