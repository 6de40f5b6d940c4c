package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Config holds the service-level search knobs.
type Config struct {
	// PlanListing enables completion-provider extraction of keywords and
	// date bounds for the remote listing. Off, the raw query is the only
	// keyword.
	PlanListing bool
	// AnswerContextDocs caps how many merged records feed answer generation.
	AnswerContextDocs int
}

// Counts reports how many records each source contributed before merging.
// A degraded hybrid response reports Remote=0 together with the degraded
// flag, never a bare zero.
type Counts struct {
	Remote int
	Local  int
}

// Response is the result of one search call.
type Response struct {
	Mode    mode.Mode
	Records []domain.Record
	Counts  Counts
	// NextPageToken is the provider continuation cursor, forwarded verbatim.
	NextPageToken string
	// QueryUsed is the provider grammar string actually sent to the listing API.
	QueryUsed string
	// RefinedQuery is the rewritten semantic query, when the semantic leg ran.
	RefinedQuery string
	// Answer is the generated summary, when requested.
	Answer string
	// Degraded marks a hybrid response served without its failed remote leg.
	Degraded      bool
	DegradedCause string
}

// Service handles document search across drive, semantic, and hybrid modes.
type Service struct {
	idx      IndexSource
	embed    Embedder
	complete Completer
	lister   Lister
	cfg      Config
}

// New creates a search service. idx may be nil when the index artifact
// failed to load; drive mode still works then.
func New(idx IndexSource, embed Embedder, complete Completer, lister Lister, cfg Config) *Service {
	if cfg.AnswerContextDocs <= 0 {
		cfg.AnswerContextDocs = DefaultAnswerContextDocs
	}
	return &Service{idx: idx, embed: embed, complete: complete, lister: lister, cfg: cfg}
}

// DefaultAnswerContextDocs caps answer context when the config leaves it unset.
const DefaultAnswerContextDocs = 5

// Search executes one search request in the mode it carries.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()

	resp, err := s.dispatch(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchesTotal.WithLabelValues(string(req.Mode()), status).Inc()
	metrics.SearchDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	if resp != nil && resp.Degraded {
		metrics.SearchDegradedTotal.Inc()
	}

	return resp, err
}

func (s *Service) dispatch(ctx context.Context, req *request.Request) (*Response, error) {
	switch req.Mode() {
	case mode.Drive:
		return s.searchDrive(ctx, req)
	case mode.Semantic:
		return s.searchSemantic(ctx, req)
	case mode.Hybrid:
		return s.searchHybrid(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unsupported search mode %q", domain.ErrInvalidRequest, req.Mode())
	}
}

// DriveSearch lists the remote provider with keyword/metadata matching and
// cursor pagination.
func (s *Service) DriveSearch(
	ctx context.Context, query string, flt filter.Filter, pageToken string, pageSize int,
) (*Response, error) {
	req, err := request.New(query, mode.Drive, flt, 0, pageSize, pageToken, false, false)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}

// SemanticSearch ranks indexed documents by embedding similarity.
func (s *Service) SemanticSearch(
	ctx context.Context, query string, topN int, flt filter.Filter,
) (*Response, error) {
	req, err := request.New(query, mode.Semantic, flt, topN, 0, "", false, false)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}

// HybridOptions tunes a HybridSearch call.
type HybridOptions struct {
	AllowDegraded bool
	WithAnswer    bool
}

// HybridSearch runs both legs and merges them.
func (s *Service) HybridSearch(
	ctx context.Context, query string, flt filter.Filter, topN int, opts HybridOptions,
) (*Response, error) {
	req, err := request.New(query, mode.Hybrid, flt, topN, 0, "", opts.AllowDegraded, opts.WithAnswer)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}

// searchDrive lists one remote page, filters it, and forwards the cursor.
func (s *Service) searchDrive(ctx context.Context, req *request.Request) (*Response, error) {
	records, next, queryUsed, err := s.driveLeg(ctx, req, req.PageToken(), req.PageSize())
	if err != nil {
		return nil, err
	}

	return &Response{
		Mode:          mode.Drive,
		Records:       records,
		Counts:        Counts{Remote: len(records)},
		NextPageToken: next,
		QueryUsed:     queryUsed,
	}, nil
}

// searchSemantic runs the index leg only.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) (*Response, error) {
	records, refined, err := s.semanticLeg(ctx, req.Query(), req.Filter(), req.TopN())
	if err != nil {
		return nil, err
	}
	annotateTitleHits(records, req.Query())

	return &Response{
		Mode:         mode.Semantic,
		Records:      records,
		Counts:       Counts{Local: len(records)},
		RefinedQuery: refined,
	}, nil
}

// searchHybrid fans out to both legs, waits for both, and merges. The remote
// leg failure degrades the response only when the caller allowed it; the
// semantic leg failure always fails the request.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) (*Response, error) {
	var (
		remote    []domain.Record
		next      string
		queryUsed string
		remoteErr error

		local   []domain.Record
		refined string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, n, q, err := s.driveLeg(gctx, req, "", req.TopN())
		if err != nil {
			if req.AllowDegraded() {
				remoteErr = err
				return nil
			}
			return err
		}
		remote, next, queryUsed = recs, n, q
		return nil
	})
	g.Go(func() error {
		recs, r, err := s.semanticLeg(gctx, req.Query(), req.Filter(), req.TopN())
		if err != nil {
			return err
		}
		local, refined = recs, r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &Response{
		Mode:          mode.Hybrid,
		Counts:        Counts{Remote: len(remote), Local: len(local)},
		NextPageToken: next,
		QueryUsed:     queryUsed,
		RefinedQuery:  refined,
	}
	if remoteErr != nil {
		logger.FromContext(ctx).Warn("remote leg failed, serving semantic-only results",
			zap.Error(remoteErr))
		resp.Degraded = true
		resp.DegradedCause = remoteErr.Error()
	}

	merged := mergeRecords(remote, local, req.Query())
	if len(merged) > req.TopN() {
		merged = merged[:req.TopN()]
	}
	resp.Records = merged

	if req.WithAnswer() {
		limit := s.cfg.AnswerContextDocs
		if limit > len(merged) {
			limit = len(merged)
		}
		answer, err := s.complete.Answer(ctx, req.Query(), refined, merged[:limit])
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		resp.Answer = answer
	}

	return resp, nil
}
