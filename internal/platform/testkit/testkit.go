// Package testkit holds assertions and seam helpers shared by package tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// MustPanic fails t unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
}

// MustNotPanic fails t if fn panics
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if v := recover(); v != nil {
			t.Fatalf("unexpected panic: %v", v)
		}
	}()
	fn()
}

// MustContain fails t unless haystack contains needle
// long haystacks (rendered pages, CSV exports) are dumped to a temp file instead of the log
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	if len(haystack) <= 512 {
		t.Fatalf("missing %q in:\n%s", needle, haystack)
	}
	dump := filepath.Join(t.TempDir(), "haystack.txt")
	_ = os.WriteFile(dump, []byte(haystack), 0o600)
	t.Fatalf("missing %q in %d bytes, dumped to %s", needle, len(haystack), dump)
}

var seamMu sync.Mutex

// Swap replaces *target for the rest of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a process wide lock until the test ends; use it in tests that
// Swap package seams or touch process env another test may read
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}
