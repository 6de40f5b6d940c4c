package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:   HTTPConfig{Port: 8080},
		Drive:  DriveConfig{BaseURL: "https://www.googleapis.com/drive/v3", Token: "t"},
		OpenAI: OpenAIConfig{APIKey: "test-key"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDriveBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Drive.BaseURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing drive base url")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing openai api key")
	}
}

func TestValidate_CacheEnabledWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}

	expected := "cache.addrs is required when cache is enabled"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_NegativeCacheTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.TTLSec = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative cache ttl")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Index.Path == "" {
		t.Error("expected a default index path")
	}
	if cfg.Search.AnswerContextDocs != 5 {
		t.Errorf("expected AnswerContextDocs=5, got %d", cfg.Search.AnswerContextDocs)
	}
	if cfg.Drive.TimeoutSec != 10 {
		t.Errorf("expected Drive.TimeoutSec=10, got %d", cfg.Drive.TimeoutSec)
	}
	if cfg.OpenAI.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.OpenAI.Embedding.Model)
	}
	if cfg.OpenAI.Completion.Model != "gpt-4o-mini" {
		t.Errorf("expected default completion model, got %q", cfg.OpenAI.Completion.Model)
	}
	if cfg.Cache.ReadinessTimeoutSec != 10 {
		t.Errorf("expected Cache.ReadinessTimeoutSec=10, got %d", cfg.Cache.ReadinessTimeoutSec)
	}
	if len(cfg.Ingest.MimeCategories) != 1 || cfg.Ingest.MimeCategories[0] != "pdf" {
		t.Errorf("expected default mime categories [pdf], got %v", cfg.Ingest.MimeCategories)
	}
	if cfg.Ingest.PageSize != 100 {
		t.Errorf("expected Ingest.PageSize=100, got %d", cfg.Ingest.PageSize)
	}
	if cfg.Ingest.MaxEmbedChars != 20000 || cfg.Ingest.MaxStoreChars != 15000 {
		t.Errorf("expected default ingest char limits, got embed=%d store=%d",
			cfg.Ingest.MaxEmbedChars, cfg.Ingest.MaxStoreChars)
	}
	if cfg.Ingest.EmbedBatchSize != 16 {
		t.Errorf("expected Ingest.EmbedBatchSize=16, got %d", cfg.Ingest.EmbedBatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Index:  IndexConfig{Path: "/srv/docdex/index.json"},
		Search: SearchConfig{AnswerContextDocs: 3},
		OpenAI: OpenAIConfig{
			Embedding:  EmbeddingConfig{Model: "custom-embed", TimeoutSec: 5},
			Completion: CompletionConfig{Model: "custom-chat", TimeoutSec: 20},
		},
		Ingest: IngestConfig{MimeCategories: []string{"doc", "sheet"}, PageSize: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.Path != "/srv/docdex/index.json" {
		t.Errorf("expected Index.Path preserved, got %q", cfg.Index.Path)
	}
	if cfg.Search.AnswerContextDocs != 3 {
		t.Errorf("expected AnswerContextDocs=3, got %d", cfg.Search.AnswerContextDocs)
	}
	if cfg.OpenAI.Embedding.Model != "custom-embed" {
		t.Errorf("expected embedding model preserved, got %q", cfg.OpenAI.Embedding.Model)
	}
	if len(cfg.Ingest.MimeCategories) != 2 {
		t.Errorf("expected mime categories preserved, got %v", cfg.Ingest.MimeCategories)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCDEX_TEST_TOKEN", "tok-123")

	in := []byte("token: ${DOCDEX_TEST_TOKEN}\nkey: ${DOCDEX_TEST_MISSING:-fallback}\n")
	out := string(expandEnvVars(in))

	if out != "token: tok-123\nkey: fallback\n" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
