// Package csvfile keeps the table in one CSV file on local disk
package csvfile

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"likert/internal/adapters/tabular"
)

// Adapter reads and rewrites a single CSV file
type Adapter struct {
	path string
}

// New returns an adapter for path; the file and its directory are created on first write
func New(path string) *Adapter { return &Adapter{path: path} }

// Path returns the file location
func (a *Adapter) Path() string { return a.path }

// ReadAll parses the file; a missing file is an empty table
func (a *Adapter) ReadAll(ctx context.Context) (tabular.Table, error) {
	if err := ctx.Err(); err != nil {
		return tabular.Table{}, tabular.Classify(tabular.OpReadAll, err)
	}
	b, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tabular.Table{}, nil
	}
	if err != nil {
		return tabular.Table{}, tabular.StoreUnavailable(tabular.OpReadAll, err)
	}
	return tabular.DecodeCSV(tabular.OpReadAll, bytes.NewReader(b))
}

// Append is read, widen, overwrite
func (a *Adapter) Append(ctx context.Context, rows []tabular.Row) error {
	return tabular.EmulateAppend(ctx, a, rows)
}

// OverwriteAll writes a sibling temp file and renames it over the old one, so a
// concurrent reader sees either the old table or the new one
func (a *Adapter) OverwriteAll(ctx context.Context, t tabular.Table) error {
	const op = tabular.OpOverwriteAll
	if err := ctx.Err(); err != nil {
		return tabular.Classify(op, err)
	}
	var buf bytes.Buffer
	if err := tabular.EncodeCSV(&buf, t); err != nil {
		return tabular.StoreUnavailable(op, err)
	}

	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tabular.StoreUnavailable(op, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return tabular.StoreUnavailable(op, err)
	}
	name := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(name)
		return tabular.StoreUnavailable(op, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return tabular.StoreUnavailable(op, err)
	}
	if err := os.Rename(name, a.path); err != nil {
		_ = os.Remove(name)
		return tabular.StoreUnavailable(op, err)
	}
	return nil
}

// Ping checks that the directory holding the file is there
func (a *Adapter) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return tabular.Classify(tabular.OpPing, err)
	}
	fi, err := os.Stat(filepath.Dir(a.path))
	if err != nil {
		return tabular.StoreUnavailable(tabular.OpPing, err)
	}
	if !fi.IsDir() {
		return tabular.StoreSchemaMismatch(tabular.OpPing, "%s is not a directory", filepath.Dir(a.path))
	}
	return nil
}

// Caps reports no concurrency guarantees
func (a *Adapter) Caps() tabular.Caps { return tabular.Caps{} }

// Driver names the store
func (a *Adapter) Driver() tabular.Driver { return tabular.DriverCSV }
