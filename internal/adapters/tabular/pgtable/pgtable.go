// Package pgtable stores rows as JSONB documents in Postgres. Column order lives in a
// side table so the header survives columns that no current row uses. Appends are one
// transaction each, which makes them atomic
package pgtable

import (
	"context"
	"encoding/json"
	"fmt"

	"likert/internal/adapters/tabular"
	perr "likert/internal/platform/errors"
	"likert/internal/platform/store"

	"github.com/jackc/pgx/v5"
)

// DefaultTable is the table name used when none is configured
const DefaultTable = "likert_responses"

// Adapter reads and writes through the platform store seam
type Adapter struct {
	db      store.TxRunner
	rows    string // sanitized identifiers
	columns string
}

// New returns an adapter over table and table_columns
func New(db store.TxRunner, table string) *Adapter {
	if table == "" {
		table = DefaultTable
	}
	return &Adapter{
		db:      db,
		rows:    pgx.Identifier{table}.Sanitize(),
		columns: pgx.Identifier{table + "_columns"}.Sanitize(),
	}
}

// EnsureSchema creates both tables when missing
func (a *Adapter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq        bigserial PRIMARY KEY,
			cells      jsonb NOT NULL,
			written_at timestamptz NOT NULL DEFAULT now()
		)`, a.rows),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			pos  bigserial PRIMARY KEY,
			name text NOT NULL UNIQUE
		)`, a.columns),
	}
	return a.db.Tx(ctx, func(q store.RowQuerier) error {
		for _, s := range stmts {
			if _, err := q.Exec(ctx, s); err != nil {
				return classify("ensure_schema", err)
			}
		}
		return nil
	})
}

func scanName(r store.Row) (string, error) {
	var s string
	return s, r.Scan(&s)
}

func scanCells(r store.Row) (tabular.Row, error) {
	var raw []byte
	if err := r.Scan(&raw); err != nil {
		return nil, err
	}
	var row tabular.Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, perr.SchemaMismatchf("cells are not a flat object: %v", err)
	}
	return row, nil
}

// ReadAll reads header and rows in one transaction; missing tables read as empty
func (a *Adapter) ReadAll(ctx context.Context) (tabular.Table, error) {
	var t tabular.Table
	err := a.db.Tx(ctx, func(q store.RowQuerier) error {
		header, err := store.Many(ctx, q, scanName, fmt.Sprintf(`SELECT name FROM %s ORDER BY pos`, a.columns))
		if err != nil {
			return err
		}
		rows, err := store.Many(ctx, q, scanCells, fmt.Sprintf(`SELECT cells FROM %s ORDER BY seq`, a.rows))
		if err != nil {
			return err
		}
		t = tabular.Table{Header: tabular.UnionHeader(header, rows), Rows: rows}.Compact()
		return nil
	})
	if err != nil {
		if perr.IsSQLState(err, perr.SQLStateUndefinedTable) {
			return tabular.Table{}, nil
		}
		return tabular.Table{}, classify(tabular.OpReadAll, err)
	}
	return t, nil
}

func (a *Adapter) insert(ctx context.Context, q store.RowQuerier, header []string, rows []tabular.Row) error {
	for _, name := range header {
		if _, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, a.columns), name); err != nil {
			return perr.FromPostgres(err, "insert column "+name)
		}
	}
	for _, r := range rows {
		if r.Blank() {
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (cells) VALUES ($1::jsonb)`, a.rows), string(b)); err != nil {
			return perr.FromPostgres(err, "insert row")
		}
	}
	return nil
}

// Append inserts new columns and rows in one transaction
func (a *Adapter) Append(ctx context.Context, rows []tabular.Row) error {
	if len(rows) == 0 {
		return nil
	}
	err := a.db.Tx(ctx, func(q store.RowQuerier) error {
		return a.insert(ctx, q, tabular.UnionHeader(nil, rows), rows)
	})
	return classify(tabular.OpAppend, err)
}

// OverwriteAll replaces both tables in one transaction
func (a *Adapter) OverwriteAll(ctx context.Context, t tabular.Table) error {
	err := a.db.Tx(ctx, func(q store.RowQuerier) error {
		for _, tbl := range []string{a.rows, a.columns} {
			if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, tbl)); err != nil {
				return err
			}
		}
		return a.insert(ctx, q, tabular.UnionHeader(t.Header, t.Rows), t.Rows)
	})
	return classify(tabular.OpOverwriteAll, err)
}

// Ping checks the connection when the seam supports it
func (a *Adapter) Ping(ctx context.Context) error {
	if p, ok := a.db.(store.Pinger); ok {
		return classify(tabular.OpPing, p.Ping(ctx))
	}
	return nil
}

// Caps reports transactional appends
func (a *Adapter) Caps() tabular.Caps { return tabular.Caps{AtomicAppend: true} }

// Driver names the store
func (a *Adapter) Driver() tabular.Driver { return tabular.DriverPG }

// classify keeps layout problems apart from everything else, which is unavailability
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if perr.IsUndefinedObject(err) {
		return tabular.StoreSchemaMismatch(op, "%v", err)
	}
	if perr.IsCode(err, perr.ErrorCodeSchemaMismatch) {
		return perr.WithOp(err, op)
	}
	if _, ok := perr.DBErrorCode(err); ok {
		return tabular.StoreUnavailable(op, err)
	}
	return tabular.Classify(op, err)
}
