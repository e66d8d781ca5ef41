// Package strings holds the few string helpers module wiring leans on
package strings

import std "strings"

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in, def []T) []T {
	if len(in) > 0 {
		return in
	}
	return def
}

// MustString panics with "<name> is required" when s is blank
func MustString(s, name string) string {
	if std.TrimSpace(s) != "" {
		return s
	}
	panic(name + " is required")
}

// MustPrefix turns " survey/ " into "/survey"; a prefix that trims to the root panics
func MustPrefix(s string) string {
	p := std.Trim(std.TrimSpace(s), "/ ")
	if p == "" {
		panic("mount prefix is required")
	}
	return "/" + p
}
