package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"likert/internal/adapters/tabular"
	perr "likert/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func TestReadAll_EmptyStore(t *testing.T) {
	tbl, err := New().ReadAll(context.Background())
	if err != nil || len(tbl.Header) != 0 || len(tbl.Rows) != 0 {
		t.Fatalf("fresh store = %+v %v", tbl, err)
	}
}

func TestAppend_WidensHeaderAndDropsBlankRows(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		var opts []Option
		if atomic {
			opts = append(opts, WithAtomicAppend())
		}
		a := New(append(opts, WithTable(tabular.Table{Header: []string{"a"}, Rows: []tabular.Row{{"a": "1"}}}))...)
		if got := a.Caps().AtomicAppend; got != atomic {
			t.Fatalf("caps = %v", got)
		}

		err := a.Append(context.Background(), []tabular.Row{{"a": "2", "b": "x"}, {"a": " "}})
		if err != nil {
			t.Fatalf("atomic=%v Append: %v", atomic, err)
		}
		want := tabular.Table{Header: []string{"a", "b"}, Rows: []tabular.Row{{"a": "1"}, {"a": "2", "b": "x"}}}
		if diff := cmp.Diff(want, a.Snapshot()); diff != "" {
			t.Fatalf("atomic=%v (-want +got):\n%s", atomic, diff)
		}
	}
}

func TestFailInjection(t *testing.T) {
	a := New()
	a.Fail(tabular.OpReadAll, errors.New("network down"))
	_, err := a.ReadAll(context.Background())
	if !tabular.IsUnavailable(err) || perr.OpOf(err) != tabular.OpReadAll {
		t.Fatalf("err = %v", err)
	}
	// emulated append fails at its read
	if err := a.Append(context.Background(), []tabular.Row{{"a": "1"}}); !tabular.IsUnavailable(err) {
		t.Fatalf("append err = %v", err)
	}
	a.Fail(tabular.OpReadAll, nil)
	if _, err := a.ReadAll(context.Background()); err != nil {
		t.Fatalf("cleared failure still returned: %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ReadAll(ctx); !tabular.IsUnavailable(err) {
		t.Fatalf("err = %v", err)
	}
}

// two writers that both read before either writes: the emulated append loses one row
func TestEmulatedAppend_LostUpdate(t *testing.T) {
	var both sync.WaitGroup
	both.Add(2)
	a := New(WithHooks(Hooks{AfterRead: func(context.Context) {
		both.Done()
		both.Wait()
	}}))

	var g errgroup.Group
	for _, id := range []string{"r1", "r2"} {
		g.Go(func() error { return a.Append(context.Background(), []tabular.Row{{"id": id}}) })
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := len(a.Snapshot().Rows); n != 1 {
		t.Fatalf("rows = %d, want the lost update to leave 1", n)
	}
}
