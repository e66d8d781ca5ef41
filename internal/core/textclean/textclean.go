// Package textclean normalizes the free text a respondent types into metadata fields
// Pipeline order
// 1 drop control characters and invalid UTF-8
// 2 Unicode NFC composition
// 3 strip format characters (zero width joiners, BOM)
// 4 fold fullwidth forms to ASCII
// 5 collapse whitespace, including newlines, to single spaces and trim
//
// Unlike a search normalizer it never changes case or letters: what is stored is
// what the respondent meant to type
package textclean

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

var folder = sync.Pool{New: func() any { return cases.Fold() }}

// Clean returns the stored form of s
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = stripControls(s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// Fold returns a caseless key for comparing option labels ("analyst" matches "Analyst")
func Fold(s string) string {
	c := folder.Get().(cases.Caser)
	defer folder.Put(c)
	return c.String(Clean(s))
}

// stripControls drops C0/C1 controls (tabs and newlines become spaces) and invalid bytes
func stripControls(s string) string {
	clean := true
	for _, r := range s {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToValidUTF8(s, "") {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
