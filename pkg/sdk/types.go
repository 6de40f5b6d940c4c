package sdk

import (
	"time"

	"github.com/oapi-codegen/runtime/types"
)

// Record is one result row.
type Record struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType,omitempty"`
	ModifiedTime *time.Time `json:"modifiedTime,omitempty"`
	Size         *int64     `json:"size,omitempty"`
	Link         string     `json:"link,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	// Score is nil for records the semantic leg never scored; the server
	// keeps "not scored" distinct from a score of 0.
	Score    *float64 `json:"score,omitempty"`
	TitleHit bool     `json:"titleHit"`
}

// Record sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Filter narrows results by content category and modification day. Date
// bounds are inclusive whole days.
type Filter struct {
	MimeTypes  []string    `json:"mimeTypes,omitempty"`
	DateAfter  *types.Date `json:"dateAfter,omitempty"`
	DateBefore *types.Date `json:"dateBefore,omitempty"`
}

// SearchRequest is the full POST /v1/search body. The mode-specific helpers
// on Client fill it in; use Search directly for full control.
type SearchRequest struct {
	Query         string  `json:"query"`
	Mode          string  `json:"mode,omitempty"`
	Filter        *Filter `json:"filter,omitempty"`
	TopN          *int    `json:"topN,omitempty"`
	PageSize      *int    `json:"pageSize,omitempty"`
	PageToken     string  `json:"pageToken,omitempty"`
	AllowDegraded bool    `json:"allowDegraded,omitempty"`
	WithAnswer    bool    `json:"withAnswer,omitempty"`
}

// Search modes.
const (
	ModeDrive    = "drive"
	ModeSemantic = "semantic"
	ModeHybrid   = "hybrid"
)

// Counts reports per-source result counts before merging and truncation.
type Counts struct {
	Remote int `json:"remote"`
	Local  int `json:"local"`
}

// SearchResponse is the POST /v1/search answer.
type SearchResponse struct {
	Mode          string   `json:"mode"`
	Results       []Record `json:"results"`
	Counts        Counts   `json:"counts"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
	QueryUsed     string   `json:"queryUsed,omitempty"`
	RefinedQuery  string   `json:"refinedQuery,omitempty"`
	GptAnswer     string   `json:"gptAnswer,omitempty"`
	// Degraded marks a hybrid response served without its failed remote leg.
	Degraded      bool   `json:"degraded,omitempty"`
	DegradedCause string `json:"degradedCause,omitempty"`
}

// Health is the GET /health answer.
type Health struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	IndexedDocs int               `json:"indexedDocs"`
	Version     string            `json:"version"`
}

// DriveOptions tunes a DriveSearch call.
type DriveOptions struct {
	Filter    *Filter
	PageSize  int
	PageToken string
}

// HybridOptions tunes a HybridSearch call.
type HybridOptions struct {
	Filter *Filter
	TopN   int
	// AllowDegraded accepts semantic-only results when the remote leg fails;
	// the response is then labeled Degraded with the cause.
	AllowDegraded bool
	WithAnswer    bool
}
