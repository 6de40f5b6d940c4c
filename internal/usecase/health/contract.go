package health

import "context"

// IndexInfo exposes the loaded vector index size.
type IndexInfo interface {
	Len() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// DriveChecker checks remote listing provider availability.
type DriveChecker interface {
	About(ctx context.Context) error
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
