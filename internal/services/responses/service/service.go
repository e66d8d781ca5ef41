// Package service contains the survey workflows: validate and store a submission,
// list, aggregate, export and repair
package service

import (
	"context"
	"errors"
	"time"

	"likert/internal/adapters/tabular"
	"likert/internal/core/aggregate"
	"likert/internal/core/export"
	"likert/internal/core/schema"
	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"
	"likert/internal/platform/metrics"
	"likert/internal/services/responses/domain"
	"likert/internal/services/responses/repo"
)

// Service defines the responses service contract
type Service interface {
	domain.ServicePort
}

// Repo is the slice of the repository the service uses
type Repo interface {
	Catalog() *schema.Catalog
	Submit(ctx context.Context, rec schema.Record) (repo.Ack, error)
	ListAll(ctx context.Context) (repo.Listing, error)
	Repair(ctx context.Context) (repo.RepairReport, error)
}

// Warnings shown in place of statistics when the store could not be read
const (
	StatsWarning       = "Responses could not be loaded right now; showing no data."
	StatsSchemaWarning = "The response store is not laid out as expected and needs an operator to fix its configuration; showing no data."
)

// Svc implements the responses service
type Svc struct {
	repo    Repo
	clock   schema.Clock
	now     func() time.Time
	metrics *metrics.Metrics
}

// New constructs the service. A nil clock means a process wide monotonic clock
func New(r Repo, clock schema.Clock, m *metrics.Metrics) *Svc {
	if r == nil {
		panic("responses.Service requires a non nil Repo")
	}
	if clock == nil {
		clock = schema.NewMonotonicClock(nil)
	}
	return &Svc{repo: r, clock: clock, now: time.Now, metrics: m}
}

// Schema returns the revision new submissions are built against
func (s *Svc) Schema() *schema.Schema { return s.repo.Catalog().Current() }

// Submit validates in and stores it
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (domain.Ack, error) {
	rec, err := s.Schema().Build(in.ToSchema(), s.clock)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		return domain.Ack{}, err
	}
	ack, err := s.repo.Submit(ctx, rec)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeStoreFailed)
		return domain.Ack{}, err
	}
	s.metrics.Submission(metrics.OutcomeAccepted)
	return domain.Ack{ResponseID: ack.ResponseID, SubmittedAt: schema.FormatTime(ack.SubmittedAt)}, nil
}

// List returns every readable record, oldest first
func (s *Svc) List(ctx context.Context) (domain.Listing, error) {
	l, err := s.repo.ListAll(ctx)
	if err != nil {
		return domain.Listing{}, err
	}
	return domain.Listing{Records: l.Records, MalformedCount: l.Malformed}, nil
}

// Stats never fails: a store error yields the empty snapshot and a warning
func (s *Svc) Stats(ctx context.Context) domain.Stats {
	l, err := s.repo.ListAll(ctx)
	if err != nil {
		warning := StatsWarning
		if tabular.IsSchemaMismatch(err) {
			warning = StatsSchemaWarning
		}
		logger.C(ctx).Warn().Err(err).Str("op", perr.OpOf(err)).Msg("stats degraded to empty snapshot")
		return domain.Stats{Snapshot: aggregate.Aggregate(s.Schema(), nil), Warning: warning}
	}
	snap := aggregate.Aggregate(s.Schema(), l.Records)
	snap.MalformedCount = l.Malformed
	return domain.Stats{Snapshot: snap}
}

// Export renders every readable record as CSV
func (s *Svc) Export(ctx context.Context) (domain.Download, error) {
	l, err := s.repo.ListAll(ctx)
	if err != nil {
		return domain.Download{}, err
	}
	b, err := export.Bytes(s.Schema(), l.Records)
	if err != nil {
		return domain.Download{}, err
	}
	return domain.Download{Filename: export.Filename(s.now()), ContentType: export.ContentType, Data: b}, nil
}

// Repair rewrites the store under canonical column names
func (s *Svc) Repair(ctx context.Context) (domain.RepairReport, error) {
	rep, err := s.repo.Repair(ctx)
	if err != nil {
		return domain.RepairReport{}, err
	}
	return domain.RepairReport{
		Rows:      rep.Rows,
		Malformed: rep.Malformed,
		Header:    rep.Header,
		Renamed:   rep.Renamed,
		Extra:     rep.Extra,
	}, nil
}

// IsValidation reports whether err is a rejected submission
func IsValidation(err error) bool {
	var ve *schema.ValidationError
	return errors.As(err, &ve)
}
