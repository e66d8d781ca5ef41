package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"likert/internal/core/textclean"
	"likert/internal/platform/validate"

	"github.com/google/uuid"
)

// MultiSep joins the values of a KindMulti field
const MultiSep = ", "

// Build validates in against s and stamps a new record. Every offending field is
// reported; nothing is defaulted. The clock is read only once validation passed
func (s *Schema) Build(in Input, clock Clock) (Record, error) {
	var probs []Problem
	add := func(field, reason string) { probs = append(probs, Problem{Field: field, Reason: reason}) }

	answers := make(map[string]int, len(s.Questions))
	for _, q := range s.Questions {
		raw := strings.TrimSpace(in.Answers[q.ID])
		if raw == "" {
			if !q.Optional {
				add(q.ID, detail(q.ID, raw, "required"))
			}
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			add(q.ID, fmt.Sprintf("%s must be a whole number", q.ID))
			continue
		}
		if msg := detail(q.ID, v, fmt.Sprintf("min=%d,max=%d", s.Scale.Min, s.Scale.Max)); msg != "" {
			add(q.ID, msg)
			continue
		}
		answers[q.ID] = v
	}

	meta := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v := textclean.Clean(in.Meta[f.ID])
		if v == "" {
			continue
		}
		if msg := detail(f.ID, v, fmt.Sprintf("max=%d", s.maxLen(f))); msg != "" {
			add(f.ID, msg)
			continue
		}
		canon, ok := f.canonical(v)
		if !ok {
			add(f.ID, fmt.Sprintf("%s must be one of [%s]", f.ID, strings.Join(f.Options, ", ")))
			continue
		}
		meta[f.ID] = canon
	}

	// unknown ids are rejected rather than written as stray columns
	for _, id := range sortedKeys(in.Answers) {
		if _, ok := s.Question(id); !ok {
			add(id, fmt.Sprintf("%s is not a question in schema %s", id, s.Version))
		}
	}
	for _, id := range sortedKeys(in.Meta) {
		if _, ok := s.Field(id); !ok && strings.TrimSpace(in.Meta[id]) != "" {
			add(id, fmt.Sprintf("%s is not a field in schema %s", id, s.Version))
		}
	}

	if len(probs) > 0 {
		return Record{}, &ValidationError{Version: s.Version, Problems: probs}
	}
	if len(meta) == 0 {
		meta = nil
	}
	return Record{
		ID:          uuid.NewString(),
		SubmittedAt: clock.Now().UTC().Truncate(time.Microsecond),
		Version:     s.Version,
		Answers:     answers,
		Meta:        meta,
	}, nil
}

// canonical maps v onto the declared option spelling; text fields pass through
func (f Field) canonical(v string) (string, bool) {
	pick := func(v string) (string, bool) {
		key := textclean.Fold(v)
		for _, o := range f.Options {
			if textclean.Fold(o) == key {
				return o, true
			}
		}
		return "", false
	}
	switch f.Kind {
	case KindCategory:
		return pick(v)
	case KindMulti:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			o, ok := pick(part)
			if !ok {
				return "", false
			}
			if !slices.Contains(out, o) {
				out = append(out, o)
			}
		}
		return strings.Join(out, MultiSep), len(out) > 0
	default:
		return v, true
	}
}

func detail(field string, v any, tag string) string {
	if d := validate.Var(field, v, tag); d != nil {
		return d.Message
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
