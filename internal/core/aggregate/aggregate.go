// Package aggregate turns a response set into summary statistics. It is a pure function
// of its input: no state survives a call, so a snapshot always describes exactly the
// records it was given
package aggregate

import (
	"math"
	"strconv"
	"strings"

	"likert/internal/core/schema"
)

// Precision is the number of decimals means are reported with
const Precision = 2

// Snapshot is the aggregate read boundary
type Snapshot struct {
	Total          int `json:"total"`
	MalformedCount int `json:"malformed_count"`
	// PerQuestion is nil for a question nobody answered, never 0
	PerQuestion map[string]*float64 `json:"per_question"`
	PerCategory map[string]*Tally   `json:"per_category"`
	// Answered counts records that answered each question
	Answered map[string]int `json:"answered"`
	// Distribution counts answers per scale point, index 0 is Scale.Min
	Distribution map[string][]int `json:"distribution"`
	Scale        schema.Scale     `json:"scale"`
}

// Aggregate computes the snapshot of records under s. MalformedCount is left for the
// caller, who knows how many rows were skipped before records reached here
func Aggregate(s *schema.Schema, records []schema.Record) Snapshot {
	snap := Snapshot{
		Total:        len(records),
		PerQuestion:  make(map[string]*float64, len(s.Questions)),
		PerCategory:  map[string]*Tally{},
		Answered:     make(map[string]int, len(s.Questions)),
		Distribution: make(map[string][]int, len(s.Questions)),
		Scale:        s.Scale,
	}

	width := s.Scale.Max - s.Scale.Min + 1
	for _, q := range s.Questions {
		sum, n := 0, 0
		dist := make([]int, width)
		for _, r := range records {
			v, ok := r.Answers[q.ID]
			if !ok {
				continue
			}
			sum += v
			n++
			if s.Scale.Contains(v) {
				dist[v-s.Scale.Min]++
			}
		}
		snap.PerQuestion[q.ID] = Mean(sum, n)
		snap.Answered[q.ID] = n
		snap.Distribution[q.ID] = dist
	}

	for _, f := range s.CategoryFields() {
		t := NewTally()
		for _, r := range records {
			v := r.Meta[f.ID]
			if v == "" {
				continue
			}
			if f.Kind == schema.KindMulti {
				for _, part := range strings.Split(v, ",") {
					if part = strings.TrimSpace(part); part != "" {
						t.Add(part)
					}
				}
				continue
			}
			t.Add(v)
		}
		snap.PerCategory[f.ID] = t
	}
	return snap
}

// Mean returns sum/n rounded half away from zero to Precision decimals, nil when n is 0.
// The division happens once on integers scaled up front so 0.125 rounds to 0.13
func Mean(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	scale := math.Pow10(Precision)
	m := math.Round(float64(sum)*scale/float64(n)) / scale
	return &m
}

// Format renders a mean for display, "n/a" when absent
func Format(m *float64) string {
	if m == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*m, 'f', Precision, 64)
}
