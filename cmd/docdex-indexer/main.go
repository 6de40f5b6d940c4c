// Command docdex-indexer builds the embedding index artifact offline. The
// API server only ever reads the artifact; this job is the single writer.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/repository/embcache"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
	openaiTransport "github.com/kailas-cloud/docdex/internal/transport/openai"
	ingestuc "github.com/kailas-cloud/docdex/internal/usecase/ingest"
	"github.com/kailas-cloud/docdex/internal/version"
)

func main() {
	full := flag.Bool("full", false, "reprocess every remote file, ignoring the existing artifact")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex indexer",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("artifact_path", cfg.Index.Path),
		zap.Strings("mime_categories", cfg.Ingest.MimeCategories),
		zap.Bool("full_rebuild", *full),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterProviderMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.Embedding.Model,
		Dimensions: cfg.OpenAI.Embedding.Dimensions,
		Provider:   "openai",
		Timeout:    time.Duration(cfg.OpenAI.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder ingestuc.Embedder = baseEmbedder

	// The cache pays off here most of all: an aborted run re-embeds nothing
	// it already paid for.
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeoutSec) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}

		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		embedder = embcache.New(baseEmbedder, store, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	driveClient := drive.NewClient(&drive.Config{
		BaseURL: cfg.Drive.BaseURL,
		Token:   cfg.Drive.Token,
		Timeout: time.Duration(cfg.Drive.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	svc := ingestuc.New(driveClient, driveClient, embedder, logger, ingestuc.Config{
		ArtifactPath:   cfg.Index.Path,
		MimeCategories: cfg.Ingest.MimeCategories,
		PageSize:       cfg.Ingest.PageSize,
		MaxEmbedChars:  cfg.Ingest.MaxEmbedChars,
		MaxStoreChars:  cfg.Ingest.MaxStoreChars,
		EmbedBatchSize: cfg.Ingest.EmbedBatchSize,
		Full:           *full,
	})

	stats, err := svc.Sync(ctx)
	if err != nil {
		logger.Error("Index build failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Index build finished",
		zap.Int("total_remote", stats.TotalRemote),
		zap.Int("total_indexed", stats.TotalIndexed),
		zap.Int("newly_processed", stats.NewlyProcessed),
		zap.Int("pruned", stats.Pruned),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
	)
}
