package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Completer runs the query-understanding and answering chat completions:
// listing plans, semantic refinements and answers over matched documents.
type Completer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// RefineQuery rewrites a query into a clearer semantic-search form. The
// model must answer with {"refined": "..."}; a malformed answer falls back
// to the original query, a provider failure does not.
func (c *Completer) RefineQuery(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(`The user asked: %q.
Rewrite this request into a clearer form with key terms for semantic document search.
Answer ONLY with valid JSON of the form:
{
  "refined": "the reformulated search request"
}`, query)

	content, err := c.complete(ctx, "refine",
		"You are an assistant that clarifies queries for semantic search.", prompt)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Refined string `json:"refined"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil || parsed.Refined == "" {
		c.logger.Warn("refine answer not parseable, using raw query",
			zap.String("content", content))
		return query, nil
	}
	return parsed.Refined, nil
}

// PlanListing extracts listing instructions from a natural-language query:
// keywords, optional day bounds and a sort direction. A malformed answer
// falls back to the raw query as the single keyword.
func (c *Completer) PlanListing(ctx context.Context, query string) (domain.ListingPlan, error) {
	prompt := fmt.Sprintf(`The user asked: %q.
Extract instructions for searching a file storage by name and date.
Answer ONLY with valid JSON, no extra text:
{
  "keywords": ["..."],
  "date_after": "YYYY-MM-DD" or null,
  "date_before": "YYYY-MM-DD" or null,
  "order": "asc/desc"
}`, query)

	content, err := c.complete(ctx, "plan",
		"You are an assistant that generates file storage listing queries.", prompt)
	if err != nil {
		return domain.ListingPlan{}, err
	}

	var parsed struct {
		Keywords   []string `json:"keywords"`
		DateAfter  *string  `json:"date_after"`
		DateBefore *string  `json:"date_before"`
		Order      string   `json:"order"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		c.logger.Warn("listing plan not parseable, using raw query as keyword",
			zap.String("content", content))
		return domain.ListingPlan{Keywords: []string{query}}, nil
	}

	plan := domain.ListingPlan{
		Keywords:   parsed.Keywords,
		DateAfter:  c.parseDay(parsed.DateAfter),
		DateBefore: c.parseDay(parsed.DateBefore),
		OrderBy:    orderExpr(parsed.Order),
	}
	if len(plan.Keywords) == 0 {
		plan.Keywords = []string{query}
	}
	return plan, nil
}

// Answer formulates a short answer from the matched documents. Context is
// one "name: snippet" line per document; the caller caps the match count.
func (c *Completer) Answer(ctx context.Context, query, refined string, matches []domain.Record) (string, error) {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Snippet == "" {
			lines = append(lines, m.Name)
			continue
		}
		lines = append(lines, m.Name+": "+m.Snippet)
	}

	prompt := fmt.Sprintf(`User question: %s
Refined request: %s

You have the following documents available:
%s

Formulate a clear, short answer using these documents.`, query, refined, strings.Join(lines, "\n\n"))

	content, err := c.complete(ctx, "answer",
		"You are an agent that answers based on the available documents.", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Completer) complete(ctx context.Context, op, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", parseAPIError(err, domain.ErrCompletionProviderError, "completion")
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(op, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(op, c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(op, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(op, c.model, "total").Add(float64(resp.Usage.TotalTokens))
	}
	domain.UsageFromContext(ctx).AddCompletionTokens(resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

func (c *Completer) parseDay(s *string) *types.Date {
	if s == nil || *s == "" || *s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		c.logger.Warn("listing plan has unparseable date", zap.String("date", *s))
		return nil
	}
	return &types.Date{Time: t}
}

// orderExpr maps the plan's sort direction onto the provider sort field the
// rest of the pipeline keys on.
func orderExpr(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), "asc") {
		return "modifiedTime asc"
	}
	return "modifiedTime desc"
}

// stripFences removes a markdown code fence around a JSON answer. Models
// add them despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.Trim(s, "` \n")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
