package domain

import (
	"strings"
	"time"
)

// Source identifies which retrieval leg produced a record.
type Source string

// Record provenance constants.
const (
	// SourceRemote marks records returned by the remote listing provider.
	SourceRemote Source = "remote"
	// SourceLocal marks records matched against the local embedding index.
	SourceLocal Source = "local"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == SourceRemote || s == SourceLocal
}

// Record is a single retrievable document, normalized across sources.
// ID plus Source is unique within one response. Score is only set on
// semantically matched records; nil means "unknown", never zero relevance.
type Record struct {
	ID           string     `json:"id"`
	Source       Source     `json:"source"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType,omitempty"`
	ModifiedTime *time.Time `json:"modifiedTime,omitempty"`
	Size         *int64     `json:"size,omitempty"`
	Link         string     `json:"link,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	Score        *float64   `json:"score,omitempty"`
	TitleHit     bool       `json:"titleHit"`
}

// FillFrom copies fields the record is missing from another record of the
// same document. Used when a semantic hit and a remote listing row describe
// the same file.
func (r *Record) FillFrom(other Record) {
	if r.Link == "" {
		r.Link = other.Link
	}
	if r.MimeType == "" {
		r.MimeType = other.MimeType
	}
	if r.ModifiedTime == nil {
		r.ModifiedTime = other.ModifiedTime
	}
	if r.Size == nil {
		r.Size = other.Size
	}
	if r.Snippet == "" {
		r.Snippet = other.Snippet
	}
	if other.TitleHit {
		r.TitleHit = true
	}
}

// NormalizedName returns the dedup key for cross-source name matching.
func (r *Record) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(r.Name))
}
