package tabular

import (
	"encoding/csv"
	"io"
	"strings"
)

// FromGrid reads a header row plus data rows. The header must be non blank and free of
// duplicates; a data row wider than the header is not tabular. Short rows are padded,
// all blank rows are dropped and an empty grid is an empty table
func FromGrid(op string, grid [][]string) (Table, error) {
	if len(grid) == 0 {
		return Table{}, nil
	}
	header := make([]string, len(grid[0]))
	seen := make(map[string]int, len(header))
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			return Table{}, StoreSchemaMismatch(op, "header cell %d is blank", i+1)
		}
		if j, dup := seen[h]; dup {
			return Table{}, StoreSchemaMismatch(op, "header %q appears in columns %d and %d", h, j+1, i+1)
		}
		seen[h] = i
		header[i] = h
	}

	t := Table{Header: header}
	for n, cells := range grid[1:] {
		if len(cells) > len(header) {
			extra := false
			for _, c := range cells[len(header):] {
				if strings.TrimSpace(c) != "" {
					extra = true
					break
				}
			}
			if extra {
				return Table{}, StoreSchemaMismatch(op, "row %d has %d cells for %d columns", n+2, len(cells), len(header))
			}
		}
		r := make(Row, len(header))
		for i, h := range header {
			if i < len(cells) {
				r[h] = cells[i]
			} else {
				r[h] = ""
			}
		}
		if !r.Blank() {
			t.Rows = append(t.Rows, r)
		}
	}
	return t, nil
}

// Grid lays t out as a header row plus one row per record in header order. Cells a row
// has under a column missing from the header are widened into the header first
func (t Table) Grid() [][]string {
	header := UnionHeader(t.Header, t.Rows)
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, header)
	for _, r := range t.Rows {
		if r.Blank() {
			continue
		}
		line := make([]string, len(header))
		for i, h := range header {
			line[i] = r[h]
		}
		out = append(out, line)
	}
	return out
}

// DecodeCSV reads a CSV table. An empty input is an empty table
func DecodeCSV(op string, r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	grid, err := cr.ReadAll()
	if err != nil {
		return Table{}, StoreSchemaMismatch(op, "not a csv table: %v", err)
	}
	return FromGrid(op, grid)
}

// EncodeCSV writes t as CSV with a header row
func EncodeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Grid()); err != nil {
		return err
	}
	return cw.Error()
}
