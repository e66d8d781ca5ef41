package schema

import (
	"math"
	"strconv"
	"strings"
)

// Row renders rec in the canonical write format; absent answers and blank metadata
// produce no cell
func (s *Schema) Row(rec Record) map[string]string {
	row := make(map[string]string, 3+len(rec.Answers)+len(rec.Meta))
	row[ColSubmittedAt] = FormatTime(rec.SubmittedAt)
	if rec.ID != "" {
		row[ColResponseID] = rec.ID
	}
	row[ColVersion] = s.Version
	if rec.Version != "" {
		row[ColVersion] = rec.Version
	}
	for id, v := range rec.Answers {
		row[id] = strconv.Itoa(v)
	}
	for id, v := range rec.Meta {
		if v != "" {
			row[id] = v
		}
	}
	return row
}

// Parse maps a row written under s back onto a record, addressing cells by name only
func (s *Schema) Parse(row map[string]string) (Record, error) {
	cells := canonicalize(row, s.Aliases)
	rec, err := parseCells(cells, s, s)
	if err != nil {
		return Record{}, err
	}
	if v := cells[ColVersion]; v != "" {
		rec.Version = v
	}
	return rec, nil
}

// canonicalize trims names and values, drops blank cells and resolves aliases.
// A column already carrying the canonical name wins over an aliased one
func canonicalize(row map[string]string, aliases map[string]string) map[string]string {
	cells := make(map[string]string, len(row))
	for k, v := range row {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if _, aliased := aliases[k]; !aliased {
			cells[k] = v
		}
	}
	for k, v := range row {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		to, aliased := aliases[k]
		if !aliased || v == "" {
			continue
		}
		if _, taken := cells[to]; !taken {
			cells[to] = v
		}
	}
	return cells
}

// parseCells reads answers declared by the matched revision and by the current one,
// each against the scale of the revision that declares it
func parseCells(cells map[string]string, matched, current *Schema) (Record, error) {
	if len(cells) == 0 {
		return Record{}, malformed("", "blank row")
	}
	ts, ok := cells[ColSubmittedAt]
	if !ok {
		return Record{}, malformed(ColSubmittedAt, "missing timestamp")
	}
	at, err := ParseTime(ts)
	if err != nil {
		return Record{}, malformed(ColSubmittedAt, "unparseable timestamp %q", ts)
	}

	rec := Record{
		ID:          cells[ColResponseID],
		SubmittedAt: at,
		Version:     matched.Version,
		Answers:     map[string]int{},
	}
	for _, s := range revisions(matched, current) {
		for _, q := range s.Questions {
			raw, ok := cells[q.ID]
			if !ok {
				continue
			}
			if _, done := rec.Answers[q.ID]; done {
				continue
			}
			v, ok := score(raw)
			if !ok {
				return Record{}, malformed(q.ID, "answer %q is not a whole number", raw)
			}
			if !s.Scale.Contains(v) {
				return Record{}, malformed(q.ID, "answer %d outside %d..%d", v, s.Scale.Min, s.Scale.Max)
			}
			rec.Answers[q.ID] = v
		}
		for _, f := range s.Fields {
			if v, ok := cells[f.ID]; ok {
				if rec.Meta == nil {
					rec.Meta = map[string]string{}
				}
				rec.Meta[f.ID] = v
			}
		}
	}
	return rec, nil
}

func revisions(matched, current *Schema) []*Schema {
	if matched == current {
		return []*Schema{matched}
	}
	return []*Schema{matched, current}
}

// score accepts "4" and the "4.0" spreadsheet exports produce for numeric columns
func score(raw string) (int, bool) {
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// shares reports whether s declares at least one question present in cells
func shares(s *Schema, cells map[string]string) bool {
	for _, q := range s.Questions {
		if _, ok := cells[q.ID]; ok {
			return true
		}
	}
	return false
}
