package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client talks to a docdex API server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("sdk: base URL is required")
	}

	cfg := clientConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    hc,
	}, nil
}

// Search executes one search request as-is.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DriveSearch lists the remote provider with keyword/metadata matching. Pass
// the previous response's NextPageToken in opts to load the next page; pages
// arrive in provider order and are meant to be appended, not re-ranked.
func (c *Client) DriveSearch(ctx context.Context, query string, opts *DriveOptions) (*SearchResponse, error) {
	req := SearchRequest{Query: query, Mode: ModeDrive}
	if opts != nil {
		req.Filter = opts.Filter
		req.PageToken = opts.PageToken
		if opts.PageSize > 0 {
			req.PageSize = &opts.PageSize
		}
	}
	return c.Search(ctx, req)
}

// SemanticSearch ranks indexed documents by embedding similarity. topN <= 0
// uses the server default.
func (c *Client) SemanticSearch(ctx context.Context, query string, topN int, filter *Filter) (*SearchResponse, error) {
	req := SearchRequest{Query: query, Mode: ModeSemantic, Filter: filter}
	if topN > 0 {
		req.TopN = &topN
	}
	return c.Search(ctx, req)
}

// HybridSearch runs both legs and merges them into one ranked result set.
func (c *Client) HybridSearch(ctx context.Context, query string, opts *HybridOptions) (*SearchResponse, error) {
	req := SearchRequest{Query: query, Mode: ModeHybrid}
	if opts != nil {
		req.Filter = opts.Filter
		req.AllowDegraded = opts.AllowDegraded
		req.WithAnswer = opts.WithAnswer
		if opts.TopN > 0 {
			req.TopN = &opts.TopN
		}
	}
	return c.Search(ctx, req)
}

// Health fetches the server's component health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("sdk: build request: %w", err)
	}

	var health Health
	if err := c.do(req, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sdk: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Health reports 503 with a valid body when a component is down; the
	// caller still wants the report.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 ||
		req.URL.Path == "/health" && resp.StatusCode == http.StatusServiceUnavailable {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sdk: decode response: %w", err)
		}
		return nil
	}

	return apiError(resp)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) != nil || parsed.Code == "" {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    "unexpected_response",
			Message: strings.TrimSpace(string(body)),
		}
	}
	return &APIError{Status: resp.StatusCode, Code: parsed.Code, Message: parsed.Message}
}
