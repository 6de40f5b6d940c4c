package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/index"
	"github.com/kailas-cloud/docdex/internal/transport/drive"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
)

// --- Stubs ---

type stubIndex struct {
	entries []index.Entry
}

func (s *stubIndex) All() []index.Entry { return s.entries }
func (s *stubIndex) Len() int           { return len(s.entries) }

type stubEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (s *stubEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	s.called = true
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(7)
	return domain.EmbeddingResult{Embedding: s.vec, TotalTokens: 7}, nil
}

type stubCompleter struct {
	refined string
}

func (s *stubCompleter) RefineQuery(ctx context.Context, query string) (string, error) {
	domain.UsageFromContext(ctx).AddCompletionTokens(5)
	if s.refined == "" {
		return query, nil
	}
	return s.refined, nil
}

func (s *stubCompleter) PlanListing(_ context.Context, query string) (domain.ListingPlan, error) {
	return domain.ListingPlan{Keywords: []string{query}}, nil
}

func (s *stubCompleter) Answer(_ context.Context, _, _ string, _ []domain.Record) (string, error) {
	return "", nil
}

type stubLister struct {
	records []domain.Record
	next    string
	err     error
	called  bool
}

func (s *stubLister) List(_ context.Context, _ drive.ListQuery) ([]domain.Record, string, error) {
	s.called = true
	if s.err != nil {
		return nil, "", s.err
	}
	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out, s.next, nil
}

// --- Helpers ---

func testEntries() []index.Entry {
	return []index.Entry{
		{ID: "a", Name: "Invoice March", Vector: []float32{1, 0}, Text: "total due 42"},
	}
}

func newTestServer(idx searchuc.IndexSource, embed searchuc.Embedder, lister searchuc.Lister) *Server {
	searchSvc := searchuc.New(idx, embed, &stubCompleter{}, lister, searchuc.Config{})
	var info healthuc.IndexInfo
	if idx != nil {
		info = idx
	}
	healthSvc := healthuc.New(info, nil, nil, nil)
	return NewServer(searchSvc, healthSvc, zap.NewNop())
}

func doSearch(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Search(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return errResp
}

// --- Search endpoint tests ---

func TestSearchEndpoint_Semantic(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{1, 0}}
	srv := newTestServer(&stubIndex{entries: testEntries()}, embed, &stubLister{})

	rr := doSearch(t, srv, `{"query":"invoice totals","mode":"semantic"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Mode != "semantic" {
		t.Errorf("mode: got %q", resp.Mode)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results: got %d", len(resp.Results))
	}
	rec := resp.Results[0]
	if rec.ID != "a" || rec.Source != "local" {
		t.Errorf("record: got %+v", rec)
	}
	if rec.Score == nil || *rec.Score < 0.99 {
		t.Errorf("score: got %v", rec.Score)
	}
	if rec.Snippet != "total due 42" {
		t.Errorf("snippet: got %q", rec.Snippet)
	}
	if !rec.TitleHit {
		t.Error("query word appears in the name, expected a title hit")
	}
	if resp.Counts.Local != 1 || resp.Counts.Remote != 0 {
		t.Errorf("counts: got %+v", resp.Counts)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "7" {
		t.Errorf("X-Embedding-Tokens: got %q", got)
	}
	if got := rr.Header().Get("X-Completion-Tokens"); got != "5" {
		t.Errorf("X-Completion-Tokens: got %q", got)
	}
}

func TestSearchEndpoint_DefaultsToHybrid(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{1, 0}}
	lister := &stubLister{records: []domain.Record{
		{ID: "r1", Source: domain.SourceRemote, Name: "summary.xlsx"},
	}}
	srv := newTestServer(&stubIndex{entries: testEntries()}, embed, lister)

	rr := doSearch(t, srv, `{"query":"invoice"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Mode != "hybrid" {
		t.Errorf("default mode: got %q", resp.Mode)
	}
	if len(resp.Results) != 2 {
		t.Errorf("results: got %d", len(resp.Results))
	}
}

func TestSearchEndpoint_InvalidJSON_400(t *testing.T) {
	srv := newTestServer(&stubIndex{}, &stubEmbedder{}, &stubLister{})

	rr := doSearch(t, srv, `{"query":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeBadRequest {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestSearchEndpoint_EmptyQuery_400(t *testing.T) {
	srv := newTestServer(&stubIndex{}, &stubEmbedder{}, &stubLister{})

	rr := doSearch(t, srv, `{"query":""}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeValidationFailed {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestSearchEndpoint_InvertedDateRange_400(t *testing.T) {
	embed := &stubEmbedder{}
	lister := &stubLister{}
	srv := newTestServer(&stubIndex{}, embed, lister)

	rr := doSearch(t, srv,
		`{"query":"q","filter":{"dateAfter":"2024-06-01","dateBefore":"2024-01-01"}}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeValidationFailed {
		t.Errorf("code: got %s", errResp.Code)
	}
	// The contradiction is rejected before any provider call.
	if embed.called || lister.called {
		t.Error("providers must not be called for an inverted date range")
	}
}

func TestSearchEndpoint_IndexUnavailable_503(t *testing.T) {
	srv := newTestServer(nil, &stubEmbedder{}, &stubLister{})

	rr := doSearch(t, srv, `{"query":"q","mode":"semantic"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeIndexUnavailable {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestSearchEndpoint_ProviderTimeout_504(t *testing.T) {
	embed := &stubEmbedder{err: fmt.Errorf("embedding request timed out: %w", domain.ErrProviderTimeout)}
	srv := newTestServer(&stubIndex{entries: testEntries()}, embed, &stubLister{})

	rr := doSearch(t, srv, `{"query":"q","mode":"semantic"}`)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeProviderTimeout {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestSearchEndpoint_DriveProviderStatus_502(t *testing.T) {
	lister := &stubLister{err: domain.NewDriveStatusError(403, "rate limit exceeded")}
	srv := newTestServer(&stubIndex{}, &stubEmbedder{}, lister)

	rr := doSearch(t, srv, `{"query":"q","mode":"drive"}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["code"] != string(CodeDriveProviderError) {
		t.Errorf("code: got %v", body["code"])
	}
	if body["provider_status"] != float64(403) {
		t.Errorf("provider_status: got %v", body["provider_status"])
	}
}

func TestSearchEndpoint_ScoreZeroSurvivesSerialization(t *testing.T) {
	// An orthogonal match scores exactly 0 — the wire field must carry it,
	// while score-less remote rows omit the key entirely.
	embed := &stubEmbedder{vec: []float32{0, 1}}
	srv := newTestServer(&stubIndex{entries: testEntries()}, embed, &stubLister{})

	rr := doSearch(t, srv, `{"query":"anything","mode":"semantic"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"score":0`) {
		t.Errorf("zero score must serialize, body: %s", rr.Body.String())
	}
}

// --- Health endpoint tests ---

func TestHealthEndpoint_OK(t *testing.T) {
	srv := newTestServer(&stubIndex{entries: testEntries()}, &stubEmbedder{}, &stubLister{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	srv.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q", resp.Status)
	}
	if resp.IndexedDocs != 1 {
		t.Errorf("indexedDocs: got %d", resp.IndexedDocs)
	}
	if resp.Version == "" {
		t.Error("version must be reported")
	}
}

func TestHealthEndpoint_Degraded_503(t *testing.T) {
	srv := newTestServer(nil, &stubEmbedder{}, &stubLister{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	srv.HealthCheck(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status: got %q", resp.Status)
	}
	if resp.Checks["index"] != "error" {
		t.Errorf("index check: got %q", resp.Checks["index"])
	}
}
