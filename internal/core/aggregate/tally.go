package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tally counts distinct values and remembers the order they were first seen in.
// It encodes as a JSON object whose keys keep that order
type Tally struct {
	keys   []string
	counts map[string]int
}

// NewTally returns an empty tally
func NewTally() *Tally { return &Tally{counts: map[string]int{}} }

// Add counts one occurrence of v
func (t *Tally) Add(v string) {
	if t.counts == nil {
		t.counts = map[string]int{}
	}
	if _, ok := t.counts[v]; !ok {
		t.keys = append(t.keys, v)
	}
	t.counts[v]++
}

// Keys returns values in first-seen order
func (t *Tally) Keys() []string { return append([]string(nil), t.keys...) }

// Count returns how often v was added
func (t *Tally) Count(v string) int { return t.counts[v] }

// Len returns the number of distinct values
func (t *Tally) Len() int { return len(t.keys) }

// MarshalJSON writes {"value":count,...} in first-seen order
func (t Tally) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		fmt.Fprintf(&buf, ":%d", t.counts[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object back keeping its key order
func (t *Tally) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("tally: expected object, got %v", tok)
	}
	*t = Tally{counts: map[string]int{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("tally: value for %q: %w", key, err)
		}
		if _, dup := t.counts[key]; !dup {
			t.keys = append(t.keys, key)
		}
		t.counts[key] += n
	}
	_, err = dec.Token()
	return err
}
