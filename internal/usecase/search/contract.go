package search

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/index"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer covers the query-understanding and answering operations.
type Completer interface {
	RefineQuery(ctx context.Context, query string) (string, error)
	PlanListing(ctx context.Context, query string) (domain.ListingPlan, error)
	Answer(ctx context.Context, query, refined string, matches []domain.Record) (string, error)
}

// Lister fetches one page of remote files.
type Lister interface {
	List(ctx context.Context, q drive.ListQuery) ([]domain.Record, string, error)
}

// IndexSource exposes the loaded embedding index. *index.Index satisfies it;
// a nil source means the artifact was not loaded and semantic search is
// unavailable.
type IndexSource interface {
	All() []index.Entry
	Len() int
}
