package ingest

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
)

// Lister enumerates remote files page by page.
type Lister interface {
	List(ctx context.Context, q drive.ListQuery) ([]domain.Record, string, error)
}

// Downloader fetches a remote file's raw content.
type Downloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Embedder vectorizes extracted document texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
