package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength  = 4096
	DefaultTopN     = 10
	MaxTopN         = 50
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageTokenLength bounds the opaque provider cursor we are willing to carry.
	MaxPageTokenLength = 2048
)

// Request is a validated search session. It lives for one call: the original
// query, the strategy, the filter and the paging cursor. Provider page tokens
// pass through opaque and are never stored server-side.
type Request struct {
	query         string
	searchMode    mode.Mode
	flt           filter.Filter
	topN          int
	pageSize      int
	pageToken     string
	allowDegraded bool
	withAnswer    bool
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, topN=10, pageSize=20. The filter must already be
// constructed (filter.New validates range inversion before any provider call).
func New(
	query string,
	m mode.Mode,
	flt filter.Filter,
	topN, pageSize int,
	pageToken string,
	allowDegraded, withAnswer bool,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidRequest, m)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > MaxTopN {
		topN = MaxTopN
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if len(pageToken) > MaxPageTokenLength {
		return Request{}, fmt.Errorf("%w: page token too long", domain.ErrInvalidRequest)
	}
	if pageToken != "" && m != mode.Drive {
		return Request{}, fmt.Errorf("%w: page token is only valid in drive mode", domain.ErrInvalidRequest)
	}

	return Request{
		query:         query,
		searchMode:    m,
		flt:           flt,
		topN:          topN,
		pageSize:      pageSize,
		pageToken:     pageToken,
		allowDegraded: allowDegraded,
		withAnswer:    withAnswer,
	}, nil
}

// Query returns the original search query text. Title-hit annotation always
// uses this value, never a refined rewrite.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filter returns the result filter.
func (r *Request) Filter() filter.Filter { return r.flt }

// TopN returns the maximum merged results to return.
func (r *Request) TopN() int { return r.topN }

// PageSize returns the remote listing page size.
func (r *Request) PageSize() int { return r.pageSize }

// PageToken returns the opaque provider continuation cursor.
func (r *Request) PageToken() string { return r.pageToken }

// AllowDegraded reports whether a hybrid call may fall back to semantic-only
// results when the remote leg fails.
func (r *Request) AllowDegraded() bool { return r.allowDegraded }

// WithAnswer reports whether a hybrid call should generate an answer from the
// top matches.
func (r *Request) WithAnswer() bool { return r.withAnswer }
