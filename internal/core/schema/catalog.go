package schema

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sync"

	perr "likert/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog holds the current form revision plus every prior one, oldest first
type Catalog struct {
	versions []*Schema
	current  *Schema
	aliases  map[string]string
}

type catalogFile struct {
	Current  string    `yaml:"current"`
	Versions []*Schema `yaml:"versions"`
}

// NewCatalog builds a catalog from revisions listed oldest first; the last one is current
func NewCatalog(versions ...*Schema) (*Catalog, error) {
	if len(versions) == 0 {
		return nil, perr.InvalidArgf("schema catalog: no versions")
	}
	return newCatalog(versions, versions[len(versions)-1].Version)
}

func newCatalog(versions []*Schema, current string) (*Catalog, error) {
	c := &Catalog{aliases: map[string]string{}}
	seen := map[string]bool{}
	for _, s := range versions {
		if s == nil {
			return nil, perr.InvalidArgf("schema catalog: nil version")
		}
		if err := s.check(); err != nil {
			return nil, err
		}
		if seen[s.Version] {
			return nil, perr.InvalidArgf("schema catalog: duplicate version %q", s.Version)
		}
		seen[s.Version] = true
		c.versions = append(c.versions, s)
		if s.Version == current {
			c.current = s
		}
	}
	if c.current == nil {
		return nil, perr.InvalidArgf("schema catalog: current version %q not listed", current)
	}
	// later revisions win; the current one always has the final say
	for _, s := range append(append([]*Schema(nil), c.versions...), c.current) {
		for from, to := range s.Aliases {
			c.aliases[from] = to
		}
	}
	return c, nil
}

// Load decodes a YAML catalog. Unknown keys are rejected so typos surface at boot
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "schema catalog: decode")
	}
	if len(f.Versions) == 0 {
		return nil, perr.InvalidArgf("schema catalog: no versions")
	}
	if f.Current == "" {
		f.Current = f.Versions[len(f.Versions)-1].Version
	}
	return newCatalog(f.Versions, f.Current)
}

// LoadFile reads a YAML catalog from disk
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "schema catalog: open %s", path)
	}
	defer func() { _ = fh.Close() }()
	return Load(fh)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in catalog describing the two original form revisions
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic("schema: embedded default catalog: " + err.Error())
		}
		defaultCat = c
	})
	return defaultCat
}

// Current returns the revision new submissions are built against
func (c *Catalog) Current() *Schema { return c.current }

// Versions returns every revision, oldest first
func (c *Catalog) Versions() []*Schema { return append([]*Schema(nil), c.versions...) }

// Version looks up a revision by name
func (c *Catalog) Version(v string) (*Schema, bool) {
	for _, s := range c.versions {
		if s.Version == v {
			return s, true
		}
	}
	return nil, false
}

// Canonical resolves a stored column name through every revision's aliases
func (c *Catalog) Canonical(col string) string {
	if to, ok := c.aliases[col]; ok {
		return to
	}
	return col
}

// Parse maps a stored row onto a record. The revision is the one named in the
// schema_version cell, else the newest revision sharing a question with the row
func (c *Catalog) Parse(row map[string]string) (Record, error) {
	cells := canonicalize(row, c.aliases)
	if len(cells) == 0 {
		return Record{}, malformed("", "blank row")
	}

	var matched *Schema
	if v, ok := cells[ColVersion]; ok {
		s, known := c.Version(v)
		if !known {
			return Record{}, malformed(ColVersion, "unknown schema version %q", v)
		}
		matched = s
	} else {
		for i := len(c.versions) - 1; i >= 0; i-- {
			if shares(c.versions[i], cells) {
				matched = c.versions[i]
				break
			}
		}
	}
	if matched == nil {
		return Record{}, malformed("", "row matches no known schema version")
	}
	return parseCells(cells, matched, c.current)
}
