// Package schema defines the canonical shape of one survey response, validates what the
// form submits and maps stored rows back onto a known form revision
package schema

import (
	"slices"

	perr "likert/internal/platform/errors"
)

// Reserved columns written ahead of every question and field
const (
	ColSubmittedAt = "submitted_at"
	ColResponseID  = "response_id"
	ColVersion     = "schema_version"
)

// DefaultMaxLen bounds free text when a schema does not set its own
const DefaultMaxLen = 500

// FieldKind says how a metadata field is validated
type FieldKind string

const (
	// KindText is free text bounded by MaxLen
	KindText FieldKind = "text"
	// KindCategory is one value out of Options
	KindCategory FieldKind = "category"
	// KindMulti is any subset of Options joined with ", "
	KindMulti FieldKind = "multi"
)

// Scale is the closed ordinal range every question is answered on
type Scale struct {
	Min    int      `yaml:"min" json:"min"`
	Max    int      `yaml:"max" json:"max"`
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Contains reports whether v lies on the scale
func (s Scale) Contains(v int) bool { return v >= s.Min && v <= s.Max }

// Points returns Min..Max
func (s Scale) Points() []int {
	out := make([]int, 0, s.Max-s.Min+1)
	for v := s.Min; v <= s.Max; v++ {
		out = append(out, v)
	}
	return out
}

// Question is one ordinal item
type Question struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
	// Optional questions may be skipped; questions are required unless marked
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Field is one optional metadata item
type Field struct {
	ID      string    `yaml:"id" json:"id"`
	Label   string    `yaml:"label" json:"label"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Options []string  `yaml:"options,omitempty" json:"options,omitempty"`
	MaxLen  int       `yaml:"max_len,omitempty" json:"max_len,omitempty"`
}

// Schema is one form revision
type Schema struct {
	Version   string     `yaml:"version" json:"version"`
	Title     string     `yaml:"title" json:"title"`
	Scale     Scale      `yaml:"scale" json:"scale"`
	Questions []Question `yaml:"questions" json:"questions"`
	Fields    []Field    `yaml:"fields" json:"fields"`
	// Aliases maps a stored column name onto the id it now goes by
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	MaxLen  int               `yaml:"max_len,omitempty" json:"max_len,omitempty"`
}

// Columns returns the canonical column order for rows written under s
func (s *Schema) Columns() []string {
	out := make([]string, 0, 3+len(s.Questions)+len(s.Fields))
	out = append(out, ColSubmittedAt, ColResponseID, ColVersion)
	for _, q := range s.Questions {
		out = append(out, q.ID)
	}
	for _, f := range s.Fields {
		out = append(out, f.ID)
	}
	return out
}

// QuestionIDs returns question ids in form order
func (s *Schema) QuestionIDs() []string {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.ID
	}
	return out
}

// Question looks up a question by id
func (s *Schema) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Field looks up a metadata field by id
func (s *Schema) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// CategoryFields returns the fields tallied by the aggregation engine, single and multi choice
func (s *Schema) CategoryFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == KindCategory || f.Kind == KindMulti {
			out = append(out, f)
		}
	}
	return out
}

func (s *Schema) maxLen(f Field) int {
	switch {
	case f.MaxLen > 0:
		return f.MaxLen
	case s.MaxLen > 0:
		return s.MaxLen
	default:
		return DefaultMaxLen
	}
}

// check fills defaults and rejects revisions that cannot be written or parsed
func (s *Schema) check() error {
	if s.Version == "" {
		return perr.InvalidArgf("schema: version is required")
	}
	if s.Scale.Min == 0 && s.Scale.Max == 0 {
		s.Scale = Scale{Min: 1, Max: 5}
	}
	if s.Scale.Min >= s.Scale.Max {
		return perr.InvalidArgf("schema %s: scale min %d must be below max %d", s.Version, s.Scale.Min, s.Scale.Max)
	}
	if n := len(s.Scale.Labels); n != 0 && n != s.Scale.Max-s.Scale.Min+1 {
		return perr.InvalidArgf("schema %s: %d scale labels for %d points", s.Version, n, s.Scale.Max-s.Scale.Min+1)
	}
	if len(s.Questions) == 0 {
		return perr.InvalidArgf("schema %s: at least one question is required", s.Version)
	}

	seen := []string{ColSubmittedAt, ColResponseID, ColVersion}
	claim := func(id string) error {
		if id == "" {
			return perr.InvalidArgf("schema %s: blank id", s.Version)
		}
		if slices.Contains(seen, id) {
			return perr.WithField(perr.InvalidArgf("schema %s: duplicate or reserved id %q", s.Version, id), id)
		}
		seen = append(seen, id)
		return nil
	}
	for _, q := range s.Questions {
		if err := claim(q.ID); err != nil {
			return err
		}
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if err := claim(f.ID); err != nil {
			return err
		}
		if f.Kind == "" {
			f.Kind = KindText
		}
		switch f.Kind {
		case KindText:
		case KindCategory, KindMulti:
			if len(f.Options) == 0 {
				return perr.WithField(perr.InvalidArgf("schema %s: field %q needs options", s.Version, f.ID), f.ID)
			}
		default:
			return perr.WithField(perr.InvalidArgf("schema %s: field %q has unknown kind %q", s.Version, f.ID, f.Kind), f.ID)
		}
	}
	for from, to := range s.Aliases {
		if from == "" || to == "" || from == to {
			return perr.InvalidArgf("schema %s: bad alias %q -> %q", s.Version, from, to)
		}
	}
	return nil
}
