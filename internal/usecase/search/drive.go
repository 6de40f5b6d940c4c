package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
)

// driveLeg plans the listing, fetches one provider page, and filters it
// locally — the provider-side query is advisory, not authoritative. Returns
// the surviving records, the continuation token, and the grammar string sent.
func (s *Service) driveLeg(
	ctx context.Context, req *request.Request, pageToken string, pageSize int,
) ([]domain.Record, string, string, error) {
	flt := req.Filter()

	spec := drive.QuerySpec{
		RawQuery:   req.Query(),
		MimeTokens: flt.MimeTypes(),
		After:      flt.DateAfter(),
		Before:     flt.DateBefore(),
	}
	orderBy := drive.DefaultOrderBy

	if s.cfg.PlanListing {
		plan, err := s.complete.PlanListing(ctx, req.Query())
		if err != nil {
			return nil, "", "", fmt.Errorf("plan listing: %w", err)
		}
		spec.Keywords = plan.Keywords
		// Explicit filter bounds always win over planned ones.
		if spec.After == nil {
			spec.After = plan.DateAfter
		}
		if spec.Before == nil {
			spec.Before = plan.DateBefore
		}
		if plan.OrderBy != "" {
			orderBy = plan.OrderBy
		}
	} else {
		spec.Keywords = []string{req.Query()}
	}

	// A model-planned bound can invert the explicit range; planned bounds
	// are advisory, so restore the validated ones instead of failing.
	if spec.After != nil && spec.Before != nil &&
		filter.DayStart(*spec.After).After(filter.DayStart(*spec.Before)) {
		spec.After = flt.DateAfter()
		spec.Before = flt.DateBefore()
	}

	query := drive.BuildQuery(spec)

	records, next, err := s.lister.List(ctx, drive.ListQuery{
		Query:     query,
		PageSize:  pageSize,
		PageToken: pageToken,
		OrderBy:   orderBy,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("list files: %w", err)
	}

	filtered := records[:0]
	for _, r := range records {
		if flt.Matches(r) {
			filtered = append(filtered, r)
		}
	}

	annotateTitleHits(filtered, req.Query())
	return filtered, next, query, nil
}
