// Package memory is an in-process tabular store. Its append is the emulated,
// non-atomic one unless WithAtomicAppend is set, and hooks let tests interleave
// concurrent writers at the point where the lost update happens
package memory

import (
	"context"
	"sync"

	"likert/internal/adapters/tabular"
)

// Hooks run outside the store lock
type Hooks struct {
	// AfterRead runs after ReadAll took its snapshot
	AfterRead func(ctx context.Context)
	// BeforeWrite runs before OverwriteAll replaces the table
	BeforeWrite func(ctx context.Context)
}

// Adapter holds one table in memory
type Adapter struct {
	mu     sync.Mutex
	table  tabular.Table
	atomic bool
	hooks  Hooks
	fail   map[string]error
}

// Option configures an Adapter
type Option func(*Adapter)

// WithAtomicAppend makes Append add rows under the lock instead of read then overwrite
func WithAtomicAppend() Option { return func(a *Adapter) { a.atomic = true } }

// WithTable seeds the store
func WithTable(t tabular.Table) Option { return func(a *Adapter) { a.table = t.Clone() } }

// WithHooks installs interleaving hooks
func WithHooks(h Hooks) Option { return func(a *Adapter) { a.hooks = h } }

// New returns an empty store
func New(opts ...Option) *Adapter {
	a := &Adapter{fail: map[string]error{}}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Fail makes every later call of op return err until Fail(op, nil)
func (a *Adapter) Fail(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.fail, op)
		return
	}
	a.fail[op] = err
}

// Snapshot returns a copy of the current table
func (a *Adapter) Snapshot() tabular.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.Clone()
}

func (a *Adapter) failure(op string) error {
	if err := a.fail[op]; err != nil {
		return tabular.Classify(op, err)
	}
	return nil
}

// ReadAll returns a copy of the table
func (a *Adapter) ReadAll(ctx context.Context) (tabular.Table, error) {
	if err := ctx.Err(); err != nil {
		return tabular.Table{}, tabular.Classify(tabular.OpReadAll, err)
	}
	a.mu.Lock()
	if err := a.failure(tabular.OpReadAll); err != nil {
		a.mu.Unlock()
		return tabular.Table{}, err
	}
	t := a.table.Clone()
	a.mu.Unlock()

	if a.hooks.AfterRead != nil {
		a.hooks.AfterRead(ctx)
	}
	return t, nil
}

// Append adds rows; see WithAtomicAppend
func (a *Adapter) Append(ctx context.Context, rows []tabular.Row) error {
	if !a.atomic {
		return tabular.EmulateAppend(ctx, a, rows)
	}
	if err := ctx.Err(); err != nil {
		return tabular.Classify(tabular.OpAppend, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failure(tabular.OpAppend); err != nil {
		return err
	}
	add := tabular.Table{Rows: rows}.Clone().Compact().Rows
	a.table.Header = tabular.UnionHeader(a.table.Header, add)
	a.table.Rows = append(a.table.Rows, add...)
	return nil
}

// OverwriteAll replaces the table
func (a *Adapter) OverwriteAll(ctx context.Context, t tabular.Table) error {
	if a.hooks.BeforeWrite != nil {
		a.hooks.BeforeWrite(ctx)
	}
	if err := ctx.Err(); err != nil {
		return tabular.Classify(tabular.OpOverwriteAll, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failure(tabular.OpOverwriteAll); err != nil {
		return err
	}
	t = t.Clone().Compact()
	t.Header = tabular.UnionHeader(t.Header, t.Rows)
	a.table = t
	return nil
}

// Caps reports the configured append mode
func (a *Adapter) Caps() tabular.Caps { return tabular.Caps{AtomicAppend: a.atomic} }

// Driver names the store
func (a *Adapter) Driver() tabular.Driver { return tabular.DriverMemory }
