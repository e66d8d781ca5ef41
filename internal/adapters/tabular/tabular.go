// Package tabular is the narrow contract between the response repository and whatever
// holds the rows: a header of column names and rows addressed by those names.
//
// Implementations live in subpackages (memory, csvfile, s3object, sheets, pgtable).
// Stores without a native append get one through EmulateAppend, which is not atomic:
// two writers racing between its read and its overwrite lose one update
package tabular

import (
	"context"
	"slices"
	"strings"
)

// Row is one record keyed by column name
type Row map[string]string

// Table is a header plus rows. Header order is the order columns are written in
type Table struct {
	Header []string
	Rows   []Row
}

// Caps advertises what a store guarantees on concurrent writes
type Caps struct {
	// AtomicAppend means concurrent Appends never lose each other's rows
	AtomicAppend bool
	// ConditionalWrite means a racing overwrite fails with a conflict instead of winning silently
	ConditionalWrite bool
}

// Driver names a store implementation, as configured by STORE_DRIVER
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverCSV    Driver = "csv"
	DriverS3     Driver = "s3"
	DriverSheets Driver = "sheets"
	DriverPG     Driver = "pg"
)

// Drivers lists every known driver
func Drivers() []string {
	return []string{string(DriverMemory), string(DriverCSV), string(DriverS3), string(DriverSheets), string(DriverPG)}
}

// Adapter is a tabular store
type Adapter interface {
	// ReadAll returns the whole table; a store that does not exist yet reads as empty
	ReadAll(ctx context.Context) (Table, error)
	// Append adds rows as one logical operation
	Append(ctx context.Context, rows []Row) error
	// OverwriteAll replaces header and rows
	OverwriteAll(ctx context.Context, t Table) error
	Caps() Caps
	Driver() Driver
}

// Pinger is implemented by adapters that can check reachability without reading rows
type Pinger interface {
	Ping(ctx context.Context) error
}

// Blank reports whether every cell of r is empty after trimming
func (r Row) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Clone deep copies t
func (t Table) Clone() Table {
	out := Table{Header: slices.Clone(t.Header)}
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
		for i, r := range t.Rows {
			c := make(Row, len(r))
			for k, v := range r {
				c[k] = v
			}
			out.Rows[i] = c
		}
	}
	return out
}

// Compact drops rows whose cells are all blank
func (t Table) Compact() Table {
	out := Table{Header: t.Header}
	for _, r := range t.Rows {
		if !r.Blank() {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// UnionHeader keeps header as is and appends every column the rows name that it lacks,
// in first-seen order. Keys within one row are taken sorted so the result is stable
func UnionHeader(header []string, rows []Row) []string {
	out := slices.Clone(header)
	seen := make(map[string]struct{}, len(out))
	for _, h := range out {
		seen[h] = struct{}{}
	}
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := seen[k]; !ok {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
