package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/index"
)

// maxSnippetRunes caps the stored-text excerpt carried on a semantic hit.
const maxSnippetRunes = 280

// semanticLeg refines the query, embeds it, and ranks every index entry by
// cosine similarity. The filter applies to the full candidate pool before
// truncation, so a restrictive filter can never be starved by unfiltered
// high scorers.
func (s *Service) semanticLeg(
	ctx context.Context, query string, flt filter.Filter, topN int,
) ([]domain.Record, string, error) {
	if s.idx == nil {
		return nil, "", domain.ErrIndexUnavailable
	}

	refined, err := s.complete.RefineQuery(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("refine query: %w", err)
	}

	emb, err := s.embed.Embed(ctx, refined)
	if err != nil {
		return nil, "", fmt.Errorf("vectorize query: %w", err)
	}

	records := make([]domain.Record, 0, s.idx.Len())
	for _, e := range s.idx.All() {
		score := index.Cosine(emb.Embedding, e.Vector)
		if score < 0 {
			// Similarity is documented in [0,1]; opposite-direction vectors
			// carry no more relevance than orthogonal ones.
			score = 0
		}
		rec := recordFromEntry(e, score)
		if !flt.Matches(rec) {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if *records[i].Score != *records[j].Score {
			return *records[i].Score > *records[j].Score
		}
		return records[i].ID < records[j].ID
	})

	if len(records) > topN {
		records = records[:topN]
	}
	return records, refined, nil
}

func recordFromEntry(e index.Entry, score float64) domain.Record {
	return domain.Record{
		ID:           e.ID,
		Source:       domain.SourceLocal,
		Name:         e.Name,
		MimeType:     e.MimeType,
		ModifiedTime: e.ModifiedTime,
		Size:         e.Size,
		Link:         e.Link,
		Snippet:      snippetOf(e.Text),
		Score:        &score,
	}
}

// snippetOf returns the first maxSnippetRunes runes of the stored text.
func snippetOf(text string) string {
	count := 0
	for i := range text {
		if count == maxSnippetRunes {
			return strings.TrimSpace(text[:i])
		}
		count++
	}
	return strings.TrimSpace(text)
}
