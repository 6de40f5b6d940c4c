// Package ingest builds the embedding index artifact the server loads
// read-only. One run lists every indexable remote file, reprocesses the new
// or changed ones, keeps unchanged entries as-is, prunes entries whose file
// vanished remotely, and replaces the artifact atomically.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/extract"
	"github.com/kailas-cloud/docdex/internal/index"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
)

// Build defaults, applied when the config leaves a knob unset.
const (
	DefaultPageSize       = 100
	DefaultMaxEmbedChars  = 20000
	DefaultMaxStoreChars  = 15000
	DefaultEmbedBatchSize = 16
)

// Config holds the index build settings.
type Config struct {
	// ArtifactPath is where the artifact is read from and written to.
	ArtifactPath string
	// MimeCategories selects which content categories get indexed.
	MimeCategories []string
	// PageSize is the remote listing page size.
	PageSize int
	// MaxEmbedChars caps how much extracted text is sent to the embedder.
	MaxEmbedChars int
	// MaxStoreChars caps how much extracted text the artifact stores.
	MaxStoreChars int
	// EmbedBatchSize is how many documents go to the embedding provider in
	// one request.
	EmbedBatchSize int
	// Full forces reprocessing of every remote file, ignoring the existing
	// artifact. Required after an embedding model change.
	Full bool
}

// Stats summarizes one build run.
type Stats struct {
	TotalRemote    int
	TotalIndexed   int
	NewlyProcessed int
	Pruned         int
	Errors         int
	Duration       time.Duration
}

// Service orchestrates one artifact build.
type Service struct {
	lister     Lister
	downloader Downloader
	embedder   Embedder
	logger     *zap.Logger
	cfg        Config
}

// New creates an ingest service.
func New(lister Lister, downloader Downloader, embedder Embedder, logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxEmbedChars <= 0 {
		cfg.MaxEmbedChars = DefaultMaxEmbedChars
	}
	if cfg.MaxStoreChars <= 0 {
		cfg.MaxStoreChars = DefaultMaxStoreChars
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}
	return &Service{lister: lister, downloader: downloader, embedder: embedder, logger: logger, cfg: cfg}
}

// Sync builds the artifact. Changed documents are downloaded and extracted
// one by one, then embedded in batches. Listing or embedding failures abort
// the run (a failing provider would fail for every remaining file anyway); a
// failure on a single document is counted, logged, and the previous artifact
// entry for that document is kept, so one bad file never blocks the build.
func (s *Service) Sync(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	existing := s.loadExisting()

	remote, err := s.listAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("list remote files: %w", err)
	}
	stats.TotalRemote = len(remote)

	entries := make([]index.Entry, 0, len(remote))
	var pending []pendingDoc
	for _, rec := range remote {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if prev, ok := existing[rec.ID]; ok && !remoteNewer(rec, prev) {
			entries = append(entries, prev)
			continue
		}

		doc, err := s.prepare(ctx, rec, &stats)
		if err != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("process %s: %w", rec.ID, err)
			}
			stats.Errors++
			s.logger.Warn("skipping document",
				zap.String("id", rec.ID),
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			if prev, ok := existing[rec.ID]; ok {
				// A stale entry still beats a hole in the index.
				entries = append(entries, prev)
			}
			continue
		}
		pending = append(pending, doc)
	}

	embedded, err := s.embedAll(ctx, pending)
	if err != nil {
		return stats, fmt.Errorf("embed documents: %w", err)
	}
	entries = append(entries, embedded...)
	stats.NewlyProcessed = len(embedded)

	stats.Pruned = countPruned(existing, remote)

	if err := checkDimensions(entries); err != nil {
		return stats, err
	}

	if err := index.Save(s.cfg.ArtifactPath, entries); err != nil {
		return stats, fmt.Errorf("write artifact: %w", err)
	}

	stats.TotalIndexed = len(entries)
	stats.Duration = time.Since(start)
	return stats, nil
}

// loadExisting reads the previous artifact for incremental diffing. A missing
// artifact means a first build; a malformed one is rebuilt from scratch — the
// artifact is derived data, never the source of truth.
func (s *Service) loadExisting() map[string]index.Entry {
	if s.cfg.Full {
		return nil
	}

	idx, err := index.Load(s.cfg.ArtifactPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("existing artifact unreadable, rebuilding from scratch",
				zap.String("path", s.cfg.ArtifactPath),
				zap.Error(err),
			)
		}
		return nil
	}

	existing := make(map[string]index.Entry, idx.Len())
	for _, e := range idx.All() {
		existing[e.ID] = e
	}
	return existing
}

// listAll follows the listing pagination to exhaustion.
func (s *Service) listAll(ctx context.Context) ([]domain.Record, error) {
	query := drive.BuildQuery(drive.QuerySpec{MimeTokens: s.cfg.MimeCategories})

	var all []domain.Record
	token := ""
	for {
		records, next, err := s.lister.List(ctx, drive.ListQuery{
			Query:     query,
			PageSize:  s.cfg.PageSize,
			PageToken: token,
			OrderBy:   drive.DefaultOrderBy,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// pendingDoc is a new or changed document whose text is ready and whose
// vector has not been requested yet.
type pendingDoc struct {
	rec   domain.Record
	text  string
	input string
}

// prepare downloads one document and extracts its text. When extraction has
// no decoder for the content, the document stays findable by title: the name
// becomes the embedding input and no text is stored.
func (s *Service) prepare(ctx context.Context, rec domain.Record, stats *Stats) (pendingDoc, error) {
	content, err := s.downloader.Download(ctx, rec.ID)
	if err != nil {
		return pendingDoc{}, fmt.Errorf("download: %w", err)
	}

	text, err := extract.Text(content, rec.MimeType)
	if err != nil {
		stats.Errors++
		s.logger.Warn("text extraction failed, indexing by name only",
			zap.String("id", rec.ID),
			zap.String("name", rec.Name),
			zap.Error(err),
		)
		text = ""
	}
	text = strings.TrimSpace(text)

	input := truncateRunes(text, s.cfg.MaxEmbedChars)
	if input == "" {
		input = rec.Name
	}

	return pendingDoc{rec: rec, text: text, input: input}, nil
}

// embedAll vectorizes the pending documents in batches of EmbedBatchSize and
// turns them into artifact entries. Any provider failure aborts the run.
func (s *Service) embedAll(ctx context.Context, pending []pendingDoc) ([]index.Entry, error) {
	entries := make([]index.Entry, 0, len(pending))
	for start := 0; start < len(pending); start += s.cfg.EmbedBatchSize {
		batch := pending[start:min(start+s.cfg.EmbedBatchSize, len(pending))]

		inputs := make([]string, len(batch))
		for i, doc := range batch {
			inputs[i] = doc.input
		}

		result, err := s.embedder.BatchEmbed(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(result.Embeddings) != len(batch) {
			return nil, fmt.Errorf("provider returned %d embeddings for %d documents",
				len(result.Embeddings), len(batch))
		}

		for i, doc := range batch {
			entries = append(entries, index.Entry{
				ID:           doc.rec.ID,
				Name:         doc.rec.Name,
				MimeType:     doc.rec.MimeType,
				ModifiedTime: doc.rec.ModifiedTime,
				Link:         doc.rec.Link,
				Size:         doc.rec.Size,
				Text:         truncateRunes(doc.text, s.cfg.MaxStoreChars),
				Vector:       result.Embeddings[i],
			})
		}
	}
	return entries, nil
}

// remoteNewer reports whether the remote copy changed since the entry was
// built. Without timestamps on both sides there is nothing to compare, so the
// entry is kept.
func remoteNewer(rec domain.Record, prev index.Entry) bool {
	if rec.ModifiedTime == nil {
		return false
	}
	if prev.ModifiedTime == nil {
		return true
	}
	return rec.ModifiedTime.After(*prev.ModifiedTime)
}

func countPruned(existing map[string]index.Entry, remote []domain.Record) int {
	if len(existing) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(remote))
	for _, rec := range remote {
		seen[rec.ID] = true
	}
	pruned := 0
	for id := range existing {
		if !seen[id] {
			pruned++
		}
	}
	return pruned
}

// checkDimensions rejects a mixed-dimensionality artifact before it is
// written. Kept entries carry vectors from the previous build; if the
// embedding model changed, they no longer match the fresh ones.
func checkDimensions(entries []index.Entry) error {
	dims := 0
	for _, e := range entries {
		if dims == 0 {
			dims = len(e.Vector)
			continue
		}
		if len(e.Vector) != dims {
			return fmt.Errorf(
				"entry %s has %d dimensions, build has %d; embedding model changed? rerun with a full rebuild",
				e.ID, len(e.Vector), dims,
			)
		}
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
