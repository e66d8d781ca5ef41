// Package repo is the response repository, the only code that talks to the tabular store.
// It writes validated records, reads rows back into records while isolating malformed
// ones, and keeps a short lived read cache that a local write purges
package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"likert/internal/adapters/tabular"
	"likert/internal/core/schema"
	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"
	"likert/internal/platform/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults applied when no option overrides them
const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultCacheTTL     = 5 * time.Second
)

const cacheKey = "table"

// Ack confirms a stored record
type Ack struct {
	ResponseID  string
	SubmittedAt time.Time
}

// Problem is one row ListAll skipped. Row is 1 based and counts the header, so it
// matches the line a spreadsheet user sees
type Problem struct {
	Row    int
	Reason string
}

// Listing is the result of a full read
type Listing struct {
	Records   []schema.Record
	Malformed int
	Problems  []Problem
}

// RepairReport describes a completed repair rewrite
type RepairReport struct {
	Rows      int
	Malformed int
	Header    []string
	Renamed   map[string]string // stored name -> canonical name
	Extra     []string          // columns kept that no revision declares
}

// Repository reads and writes responses through one adapter
type Repository struct {
	store   tabular.Adapter
	cat     *schema.Catalog
	timeout time.Duration
	ttl     time.Duration
	cache   *expirable.LRU[string, tabular.Table]
	met     *metrics.Metrics

	// gen moves on every purge; a read only fills the cache if no purge happened
	// while it was in flight
	mu  sync.Mutex
	gen uint64
	log     logger.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithStoreTimeout bounds every store call; zero leaves only the caller's deadline
func WithStoreTimeout(d time.Duration) Option { return func(r *Repository) { r.timeout = d } }

// WithCacheTTL sets how long a full read is reused; zero disables the cache
func WithCacheTTL(d time.Duration) Option { return func(r *Repository) { r.ttl = d } }

// WithMetrics records store latency, cache events and malformed rows
func WithMetrics(m *metrics.Metrics) Option { return func(r *Repository) { r.met = m } }

// WithLogger replaces the component logger
func WithLogger(l logger.Logger) Option { return func(r *Repository) { r.log = l } }

// New returns a repository over a. A nil catalog means the built-in one
func New(a tabular.Adapter, cat *schema.Catalog, opts ...Option) *Repository {
	if a == nil {
		panic("responses.Repository requires a non nil store")
	}
	if cat == nil {
		cat = schema.Default()
	}
	r := &Repository{
		store:   a,
		cat:     cat,
		timeout: DefaultStoreTimeout,
		ttl:     DefaultCacheTTL,
		log:     *logger.Named("responses"),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With().Str("store", string(a.Driver())).Logger()
	if r.ttl > 0 {
		r.cache = expirable.NewLRU[string, tabular.Table](1, nil, r.ttl)
	}
	return r
}

// Catalog returns the catalog rows are parsed with
func (r *Repository) Catalog() *schema.Catalog { return r.cat }

// Driver names the backing store
func (r *Repository) Driver() tabular.Driver { return r.store.Driver() }

// call runs one store operation under the store timeout and records it
func (r *Repository) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := tabular.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := tabular.Classify(op, fn(ctx))
	result := "ok"
	if err != nil {
		result = perr.CodeOf(err).String()
	}
	r.met.StoreOp(string(r.store.Driver()), op, result, time.Since(start))
	return err
}

func (r *Repository) purge() {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	r.gen++
	r.cache.Purge()
	r.mu.Unlock()
	r.met.Cache(metrics.CachePurge)
}

func (r *Repository) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// remember caches t unless a local write purged the cache after the read started
func (r *Repository) remember(gen uint64, t tabular.Table) {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		r.log.Debug().Msg("read raced a local write, not cached")
		return
	}
	r.cache.Add(cacheKey, t)
}

// read returns the whole table, from the cache unless fresh is set
func (r *Repository) read(ctx context.Context, fresh bool) (tabular.Table, error) {
	if r.cache != nil && !fresh {
		if t, ok := r.cache.Get(cacheKey); ok {
			r.met.Cache(metrics.CacheHit)
			r.log.Debug().Int("rows", len(t.Rows)).Msg("read cache hit")
			return t, nil
		}
		r.met.Cache(metrics.CacheMiss)
	}

	gen := r.generation()
	var t tabular.Table
	err := r.call(ctx, tabular.OpReadAll, func(ctx context.Context) error {
		var err error
		t, err = r.store.ReadAll(ctx)
		return err
	})
	if err != nil {
		r.log.Error().Err(err).Str("op", tabular.OpReadAll).Msg("store read failed")
		return tabular.Table{}, err
	}
	r.remember(gen, t)
	return t, nil
}

// Submit appends rec. Success means the store acknowledged the write; a failure is
// returned as is and never retried
func (r *Repository) Submit(ctx context.Context, rec schema.Record) (Ack, error) {
	row := tabular.Row(r.cat.Current().Row(rec))
	err := r.call(ctx, tabular.OpAppend, func(ctx context.Context) error {
		return r.store.Append(ctx, []tabular.Row{row})
	})
	if err != nil {
		r.log.Error().Err(err).Str("op", perr.OpOf(err)).Str("response_id", rec.ID).Msg("submit failed")
		return Ack{}, err
	}
	r.purge()
	r.log.Info().Str("response_id", rec.ID).Str("version", rec.Version).Msg("response stored")
	return Ack{ResponseID: rec.ID, SubmittedAt: rec.SubmittedAt}, nil
}

// ListAll parses every row, oldest first. Rows that map onto no usable record are
// counted and logged but never fail the read
func (r *Repository) ListAll(ctx context.Context) (Listing, error) {
	t, err := r.read(ctx, false)
	if err != nil {
		return Listing{}, err
	}

	out := Listing{Records: make([]schema.Record, 0, len(t.Rows))}
	for i, row := range t.Rows {
		rec, err := r.cat.Parse(row)
		if err != nil {
			p := Problem{Row: i + 2, Reason: err.Error()}
			out.Malformed++
			out.Problems = append(out.Problems, p)
			r.log.Warn().Int("row", p.Row).Str("reason", p.Reason).Msg("skipping malformed row")
			continue
		}
		out.Records = append(out.Records, rec)
	}
	slices.SortStableFunc(out.Records, func(a, b schema.Record) int {
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})
	r.met.Malformed(out.Malformed)
	return out, nil
}

// Repair rewrites the store with canonical column names: the current revision's columns
// first, then every other stored column in its existing order. Row values, malformed
// rows included, are kept. A failed read leaves the store untouched
func (r *Repository) Repair(ctx context.Context) (RepairReport, error) {
	t, err := r.read(ctx, true)
	if err != nil {
		return RepairReport{}, err
	}

	rep := RepairReport{Renamed: map[string]string{}}
	header := r.cat.Current().Columns()
	seen := make(map[string]bool, len(header))
	for _, c := range header {
		seen[c] = true
	}
	for _, col := range t.Header {
		canon := r.cat.Canonical(col)
		if canon != col {
			rep.Renamed[col] = canon
		}
		if !seen[canon] {
			seen[canon] = true
			header = append(header, canon)
			rep.Extra = append(rep.Extra, canon)
		}
	}

	rows := make([]tabular.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if _, err := r.cat.Parse(row); err != nil {
			rep.Malformed++
		}
		rows = append(rows, r.canonicalRow(row))
	}
	// columns only rows carry, e.g. written by a process with a newer catalog
	for _, c := range tabular.UnionHeader(header, rows)[len(header):] {
		header = append(header, c)
		rep.Extra = append(rep.Extra, c)
	}

	err = r.call(ctx, tabular.OpOverwriteAll, func(ctx context.Context) error {
		return r.store.OverwriteAll(ctx, tabular.Table{Header: header, Rows: rows})
	})
	if err != nil {
		r.log.Error().Err(err).Msg("repair write failed")
		return RepairReport{}, err
	}
	r.purge()

	rep.Rows = len(rows)
	rep.Header = header
	r.log.Info().Int("rows", rep.Rows).Int("malformed", rep.Malformed).Int("renamed", len(rep.Renamed)).Msg("store repaired")
	return rep, nil
}

// canonicalRow renames aliased cells. A non blank cell under the canonical name wins
func (r *Repository) canonicalRow(row tabular.Row) tabular.Row {
	out := make(tabular.Row, len(row))
	for k, v := range row {
		if r.cat.Canonical(k) == k {
			out[k] = v
		}
	}
	for k, v := range row {
		canon := r.cat.Canonical(k)
		if canon == k {
			continue
		}
		if cur, ok := out[canon]; !ok || cur == "" {
			out[canon] = v
		}
	}
	return out
}

// Ping checks the store is reachable, without a full read when the adapter allows it
func (r *Repository) Ping(ctx context.Context) error {
	return r.call(ctx, tabular.OpPing, func(ctx context.Context) error {
		if p, ok := r.store.(tabular.Pinger); ok {
			return p.Ping(ctx)
		}
		_, err := r.store.ReadAll(ctx)
		return err
	})
}
