// Package retrieval turns weighted queries into a ranked, filtered and
// diversity-capped list of mod candidates.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/category"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/filter"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
	"github.com/TheVirusNVGM/modcurator/internal/metrics"
)

// Service defaults.
const (
	DefaultParallelism = 4
	DefaultTargetCount = 100
)

// Options tunes scoring and post-processing.
type Options struct {
	K1                     float64
	B                      float64
	DescriptionLimit       int
	KeywordFetchMultiplier int
	// Parallelism bounds concurrently running queries.
	Parallelism           int
	DefaultTargetCount    int
	DefaultMaxPerCategory int
	// DiversityExempt skips diversity when the include list names one of them.
	DiversityExempt   []string
	OutdatedThreshold int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		K1:                     DefaultK1,
		B:                      DefaultB,
		DescriptionLimit:       DefaultDescriptionLimit,
		KeywordFetchMultiplier: DefaultKeywordFetchMultiplier,
		Parallelism:            DefaultParallelism,
		DefaultTargetCount:     DefaultTargetCount,
		DefaultMaxPerCategory:  DefaultMaxPerCategory,
		DiversityExempt:        []string{"optimization", "performance"},
		OutdatedThreshold:      DefaultOutdatedThreshold,
	}
}

// Request is one retrieval run.
type Request struct {
	Queries   []query.Query
	Filters   filter.Filters
	Platform  platform.Platform
	Diversity Diversity
	// TargetCount truncates the final list; <= 0 uses the configured default.
	TargetCount int
}

// QueryReport records how a single query contributed.
type QueryReport struct {
	Type query.Type
	Text string
	Hits int
	// Err is set when the query failed or was skipped; the run still succeeds.
	Err error
}

// Outcome is the ranked candidate list plus per-query transparency.
type Outcome struct {
	Candidates []candidate.Candidate
	Queries    []QueryReport
}

// Service runs retrieval: execute, fuse, filter, diversify, truncate.
type Service struct {
	exec     *executor
	synonyms category.Synonyms
	opts     Options
	logger   *zap.Logger
}

// New creates a retrieval service. Unset options fall back to defaults; a
// negative DescriptionLimit disables truncation.
func New(catalog Catalog, embed Embedder, synonyms category.Synonyms, opts Options, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.K1 <= 0 {
		opts.K1, opts.B = def.K1, def.B
	}
	if opts.B < 0 || opts.B > 1 {
		opts.B = def.B
	}
	if opts.DescriptionLimit == 0 {
		opts.DescriptionLimit = def.DescriptionLimit
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = def.Parallelism
	}
	if opts.DefaultTargetCount <= 0 {
		opts.DefaultTargetCount = def.DefaultTargetCount
	}
	if opts.DefaultMaxPerCategory <= 0 {
		opts.DefaultMaxPerCategory = def.DefaultMaxPerCategory
	}
	if opts.DiversityExempt == nil {
		opts.DiversityExempt = def.DiversityExempt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		exec: &executor{
			catalog:         catalog,
			embed:           embed,
			bm25:            BM25{K1: opts.K1, B: opts.B, DescriptionLimit: opts.DescriptionLimit},
			fetchMultiplier: opts.KeywordFetchMultiplier,
		},
		synonyms: synonyms,
		opts:     opts,
		logger:   logger,
	}
}

// Retrieve runs every query and returns the ranked candidates. Query failures
// are reported per query and never fail the run; only an invalid platform is
// an error.
func (s *Service) Retrieve(ctx context.Context, req Request) (Outcome, error) {
	if err := validatePlatform(req.Platform); err != nil {
		return Outcome{}, err
	}

	perQuery, reports := s.runQueries(ctx, req.Queries)

	fused := fuse(perQuery)
	metrics.RetrievalCandidates.WithLabelValues("fused").Observe(float64(len(fused)))

	elig := &eligibility{
		filters:           &req.Filters,
		platform:          req.Platform,
		synonyms:          s.synonyms,
		outdatedThreshold: s.opts.OutdatedThreshold,
		logger:            s.logger,
	}
	filtered := elig.apply(fused)
	metrics.RetrievalCandidates.WithLabelValues("filtered").Observe(float64(len(filtered)))

	final := filtered
	if req.Diversity.Enabled && !narrowlyScoped(req.Filters.CategoriesInclude, s.opts.DiversityExempt) {
		maxPer := req.Diversity.MaxPerCategory
		if maxPer <= 0 {
			maxPer = s.opts.DefaultMaxPerCategory
		}
		final = diversify(filtered, maxPer)
	}

	target := req.TargetCount
	if target <= 0 {
		target = s.opts.DefaultTargetCount
	}
	if len(final) > target {
		final = final[:target]
	}
	metrics.RetrievalCandidates.WithLabelValues("final").Observe(float64(len(final)))

	s.logger.Info("Retrieval completed",
		zap.Int("queries", len(req.Queries)),
		zap.Int("fused", len(fused)),
		zap.Int("filtered", len(filtered)),
		zap.Int("final", len(final)),
	)

	if final == nil {
		final = []candidate.Candidate{}
	}
	return Outcome{Candidates: final, Queries: reports}, nil
}

// runQueries executes queries with bounded parallelism. Results keep query
// order so fusion is deterministic.
func (s *Service) runQueries(ctx context.Context, queries []query.Query) ([][]candidate.Candidate, []QueryReport) {
	perQuery := make([][]candidate.Candidate, len(queries))
	reports := make([]QueryReport, len(queries))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Parallelism)

	for i := range queries {
		q := &queries[i]
		g.Go(func() error {
			start := time.Now()
			hits, err := s.exec.execute(ctx, q)
			metrics.RetrievalQueryDuration.WithLabelValues(string(q.Type())).Observe(time.Since(start).Seconds())

			reports[i] = QueryReport{Type: q.Type(), Text: q.Text(), Hits: len(hits), Err: err}
			switch {
			case errors.Is(err, errUnsupportedQueryType):
				metrics.RetrievalQueriesTotal.WithLabelValues(string(q.Type()), "skipped").Inc()
				s.logger.Warn("Query skipped",
					zap.String("query_type", string(q.Type())),
					zap.Error(err),
				)
			case err != nil:
				metrics.RetrievalQueriesTotal.WithLabelValues(string(q.Type()), "error").Inc()
				s.logger.Warn("Query failed, continuing without its results",
					zap.String("query_type", string(q.Type())),
					zap.String("text", q.Text()),
					zap.Error(err),
				)
			default:
				metrics.RetrievalQueriesTotal.WithLabelValues(string(q.Type()), "ok").Inc()
				perQuery[i] = hits
			}
			return nil // individual query failures never fail the group
		})
	}
	_ = g.Wait()

	return perQuery, reports
}

func validatePlatform(p platform.Platform) error {
	if p.MCVersion == "" {
		return fmt.Errorf("%w: mc version is required", domain.ErrInvalidRequest)
	}
	if !p.Loader.IsValid() {
		return fmt.Errorf("%w: unsupported loader %q", domain.ErrInvalidRequest, p.Loader)
	}
	return nil
}
