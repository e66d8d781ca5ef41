// Package export renders responses as an RFC 4180 CSV download and reads such a file back
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"likert/internal/core/schema"
	perr "likert/internal/platform/errors"
)

// ContentType is the media type of an export
const ContentType = "text/csv; charset=utf-8"

// Filename names an export taken at now
func Filename(now time.Time) string {
	return fmt.Sprintf("likert-responses-%s.csv", now.UTC().Format(time.DateOnly))
}

// ToTable writes records as CSV: header s.Columns(), then one row per record in the
// given order. Cells a record does not carry are left empty
func ToTable(s *schema.Schema, records []schema.Record, w io.Writer) error {
	cols := s.Columns()
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "export: write header")
	}
	line := make([]string, len(cols))
	for _, rec := range records {
		row := s.Row(rec)
		for i, c := range cols {
			line[i] = row[c]
		}
		if err := cw.Write(line); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "export: write %s", rec.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "export: flush")
	}
	return nil
}

// Bytes is ToTable into memory
func Bytes(s *schema.Schema, records []schema.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := ToTable(s, records, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse reads an export back through s. Cells are matched to the header by name, so
// column order in the file is irrelevant
func Parse(s *schema.Schema, r io.Reader) ([]schema.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "export: read header")
	}

	var out []schema.Record
	for line := 2; ; line++ {
		cells, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "export: line %d", line)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		rec, err := s.Parse(row)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "export: line %d", line)
		}
		out = append(out, rec)
	}
}
