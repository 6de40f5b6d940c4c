package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	"github.com/kailas-cloud/docdex/internal/version"
)

// ErrorCode is a machine-readable API error code.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeCompletionProviderError ErrorCode = "completion_provider_error"
	CodeDriveProviderError      ErrorCode = "drive_provider_error"
	CodeIndexUnavailable        ErrorCode = "index_unavailable"
	CodeProviderTimeout         ErrorCode = "provider_timeout"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the error body for every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /v1/search body.
type SearchRequest struct {
	Query         string     `json:"query"`
	Mode          string     `json:"mode,omitempty"`
	Filter        *FilterDTO `json:"filter,omitempty"`
	TopN          *int       `json:"topN,omitempty"`
	PageSize      *int       `json:"pageSize,omitempty"`
	PageToken     string     `json:"pageToken,omitempty"`
	AllowDegraded bool       `json:"allowDegraded,omitempty"`
	WithAnswer    bool       `json:"withAnswer,omitempty"`
}

// FilterDTO narrows results by content type and modification day.
type FilterDTO struct {
	MimeTypes  []string    `json:"mimeTypes,omitempty"`
	DateAfter  *types.Date `json:"dateAfter,omitempty"`
	DateBefore *types.Date `json:"dateBefore,omitempty"`
}

// RecordDTO is one result row on the wire.
type RecordDTO struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType,omitempty"`
	ModifiedTime *time.Time `json:"modifiedTime,omitempty"`
	Size         *int64     `json:"size,omitempty"`
	Link         string     `json:"link,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	// Score stays a pointer end to end: absent means "not scored", which is
	// not the same thing as 0.
	Score    *float64 `json:"score,omitempty"`
	TitleHit bool     `json:"titleHit"`
}

// CountsDTO reports per-source result counts before merge and truncation.
type CountsDTO struct {
	Remote int `json:"remote"`
	Local  int `json:"local"`
}

// SearchResponse is the POST /v1/search answer.
type SearchResponse struct {
	Mode          string      `json:"mode"`
	Results       []RecordDTO `json:"results"`
	Counts        CountsDTO   `json:"counts"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
	QueryUsed     string      `json:"queryUsed,omitempty"`
	RefinedQuery  string      `json:"refinedQuery,omitempty"`
	GptAnswer     string      `json:"gptAnswer,omitempty"`
	Degraded      bool        `json:"degraded,omitempty"`
	DegradedCause string      `json:"degradedCause,omitempty"`
}

// HealthResponse is the GET /health answer.
type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	IndexedDocs int               `json:"indexedDocs"`
	Version     string            `json:"version"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP. Routing is owned by the caller;
// the server only provides handlers.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		driveStatusHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeValidationFailed),
		// Timeout first: "the provider never answered" must not degrade into
		// a generic bad-gateway answer.
		sentinelHandler(domain.ErrProviderTimeout, http.StatusGatewayTimeout, CodeProviderTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeCompletionProviderError),
		sentinelHandler(domain.ErrDriveProviderError, http.StatusBadGateway, CodeDriveProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
	}
	return s
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	domReq, err := searchRequestFromDTO(req)
	if err != nil {
		// filter.New and request.New wrap ErrInvalidFilter/ErrInvalidRequest
		// with messages that are safe to echo.
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &domReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:      string(report.Status),
		Checks:      checks,
		IndexedDocs: report.IndexedDocs,
		Version:     version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchRequestFromDTO(req SearchRequest) (request.Request, error) {
	var mimeTypes []string
	var after, before *types.Date
	if req.Filter != nil {
		mimeTypes = req.Filter.MimeTypes
		after = req.Filter.DateAfter
		before = req.Filter.DateBefore
	}

	flt, err := filter.New(mimeTypes, after, before)
	if err != nil {
		return request.Request{}, err
	}

	return request.New(
		req.Query,
		mode.Mode(req.Mode),
		flt,
		derefInt(req.TopN),
		derefInt(req.PageSize),
		req.PageToken,
		req.AllowDegraded,
		req.WithAnswer,
	)
}

func searchResponseToDTO(resp *searchuc.Response) SearchResponse {
	results := make([]RecordDTO, len(resp.Records))
	for i := range resp.Records {
		results[i] = recordToDTO(&resp.Records[i])
	}
	return SearchResponse{
		Mode:          string(resp.Mode),
		Results:       results,
		Counts:        CountsDTO{Remote: resp.Counts.Remote, Local: resp.Counts.Local},
		NextPageToken: resp.NextPageToken,
		QueryUsed:     resp.QueryUsed,
		RefinedQuery:  resp.RefinedQuery,
		GptAnswer:     resp.Answer,
		Degraded:      resp.Degraded,
		DegradedCause: resp.DegradedCause,
	}
}

func recordToDTO(rec *domain.Record) RecordDTO {
	return RecordDTO{
		ID:           rec.ID,
		Source:       string(rec.Source),
		Name:         rec.Name,
		MimeType:     rec.MimeType,
		ModifiedTime: rec.ModifiedTime,
		Size:         rec.Size,
		Link:         rec.Link,
		Snippet:      rec.Snippet,
		Score:        rec.Score,
		TitleHit:     rec.TitleHit,
	}
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.ProviderUsage) {
	if usage == nil || !usage.Used() {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens()))
	w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrInvalidFilter,
		domain.ErrProviderTimeout,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrDriveProviderError,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// driveStatusHandler handles ErrDriveProviderError, surfacing the provider's status code.
func driveStatusHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDriveProviderError) {
		return false
	}
	var dse *domain.DriveStatusError
	if errors.As(err, &dse) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"code":            CodeDriveProviderError,
			"message":         msg,
			"provider_status": dse.StatusCode,
		})
		return true
	}
	writeError(w, http.StatusBadGateway, CodeDriveProviderError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
