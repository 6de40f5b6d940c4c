// Package drive is a REST client for the remote file-storage listing API.
// It translates listing responses into domain records and keeps provider
// page tokens fully opaque.
package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// listFields is the partial-response projection for listing calls.
const listFields = "nextPageToken,files(id,name,mimeType,modifiedTime,size,webViewLink)"

// DefaultOrderBy keeps listings stable when the caller requests no order.
const DefaultOrderBy = "modifiedTime desc"

// Client calls the provider's files API with a static bearer token.
// Real authorization flows (OAuth consent, service accounts) are outside
// this service; the token comes from configuration.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the listing provider settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a listing provider client.
func NewClient(cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		timeout: timeout,
		logger:  logger,
	}
}

// ListQuery is one listing page request. Query is the provider grammar
// string produced by BuildQuery; PageToken is forwarded verbatim.
type ListQuery struct {
	Query     string
	PageSize  int
	PageToken string
	OrderBy   string
}

// listResponse mirrors the provider's files.list payload. Size arrives as a
// quoted integer.
type listResponse struct {
	NextPageToken string     `json:"nextPageToken"`
	Files         []listFile `json:"files"`
}

type listFile struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType"`
	ModifiedTime *time.Time `json:"modifiedTime"`
	Size         *int64     `json:"size,string"`
	WebViewLink  string     `json:"webViewLink"`
}

// List fetches one page of files matching the query. The returned token is
// the provider's continuation cursor, empty on the last page.
func (c *Client) List(ctx context.Context, q ListQuery) ([]domain.Record, string, error) {
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("fields", listFields)
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}
	if q.OrderBy != "" {
		params.Set("orderBy", q.OrderBy)
	}

	var resp listResponse
	if err := c.getJSON(ctx, "list", "/files?"+params.Encode(), &resp); err != nil {
		return nil, "", err
	}

	records := make([]domain.Record, 0, len(resp.Files))
	for _, f := range resp.Files {
		records = append(records, domain.Record{
			ID:           f.ID,
			Source:       domain.SourceRemote,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
			Link:         f.WebViewLink,
		})
	}
	return records, resp.NextPageToken, nil
}

// About pings the provider. Used by health checks; the projection keeps the
// response minimal.
func (c *Client) About(ctx context.Context) error {
	var resp struct {
		Kind string `json:"kind"`
	}
	return c.getJSON(ctx, "about", "/about?fields=kind", &resp)
}

// Download fetches a file's raw content. Used by the offline indexer only.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/files/" + url.PathEscape(fileID) + "?alt=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.DriveRequestsTotal.WithLabelValues("download", "error").Inc()
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DriveRequestsTotal.WithLabelValues("download", "error").Inc()
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.DriveRequestsTotal.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("read download body: %w", c.transportError(err))
	}

	metrics.DriveRequestsTotal.WithLabelValues("download", "success").Inc()
	metrics.DriveRequestDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.DriveRequestsTotal.WithLabelValues(op, "error").Inc()
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DriveRequestsTotal.WithLabelValues(op, "error").Inc()
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.DriveRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("decode %s response: %w", op, domain.ErrDriveProviderError)
	}

	metrics.DriveRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.DriveRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// transportError distinguishes an elapsed budget from other transport faults.
// Caller cancellation passes through untouched.
func (c *Client) transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("drive request exceeded %s: %w", c.timeout, domain.ErrProviderTimeout)
	}
	return fmt.Errorf("drive request failed: %w: %w", domain.ErrDriveProviderError, err)
}

// statusError maps a non-200 provider response, preserving its message.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &parsed) == nil {
		msg = parsed.Error.Message
	}
	return domain.NewDriveStatusError(resp.StatusCode, msg)
}
