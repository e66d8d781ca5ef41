package schema

import (
	"strings"
	"sync"
	"time"
)

// Wire layouts for submitted_at. TimeLayout is fixed width so lexical order on the store
// is chronological; LegacyLayout is what the first form revisions wrote
const (
	TimeLayout   = "2006-01-02T15:04:05.000000Z"
	LegacyLayout = "2006-01-02 15:04:05"
)

// Record is one validated, immutable survey submission
type Record struct {
	ID          string            `json:"id,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Version     string            `json:"version"`
	Answers     map[string]int    `json:"answers"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Input is what the form posted: answers as raw strings, metadata as typed
type Input struct {
	Answers map[string]string
	Meta    map[string]string
}

// FormatTime renders t in TimeLayout
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTime accepts TimeLayout, LegacyLayout (fractions allowed, read as UTC) and RFC 3339
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range []string{TimeLayout, LegacyLayout, time.RFC3339Nano} {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// Clock supplies submission stamps
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// MonotonicClock never hands out a stamp earlier than the previous one, even when the
// wall clock steps back. Stamps are UTC at microsecond precision, matching TimeLayout
type MonotonicClock struct {
	mu   sync.Mutex
	src  func() time.Time
	last time.Time
}

// NewMonotonicClock wraps src; nil means time.Now
func NewMonotonicClock(src func() time.Time) *MonotonicClock {
	if src == nil {
		src = time.Now
	}
	return &MonotonicClock{src: src}
}

// Now implements Clock
func (c *MonotonicClock) Now() time.Time {
	t := c.src().UTC().Truncate(time.Microsecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
