package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// MaxMimeTypes is the maximum number of mime constraints per filter.
const MaxMimeTypes = 16

// Filter narrows search results by content type and modification date.
// The zero value is the empty filter and matches every record.
type Filter struct {
	mimeTypes  []string
	dateAfter  *types.Date
	dateBefore *types.Date
}

// New validates and creates a Filter.
// Mime entries are coarse category tokens ("pdf", "doc", "sheet") or literal
// mime strings ("application/zip"); they are normalized to lower case.
// Date bounds are inclusive whole days in UTC. An inverted range is rejected
// before any provider is called.
func New(mimeTypes []string, dateAfter, dateBefore *types.Date) (Filter, error) {
	if len(mimeTypes) > MaxMimeTypes {
		return Filter{}, fmt.Errorf("%w: too many mime types (max %d)", domain.ErrInvalidFilter, MaxMimeTypes)
	}

	normalized := make([]string, 0, len(mimeTypes))
	for _, m := range mimeTypes {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			return Filter{}, fmt.Errorf("%w: empty mime type", domain.ErrInvalidFilter)
		}
		normalized = append(normalized, m)
	}

	if dateAfter != nil && dateBefore != nil && dayStart(*dateAfter).After(dayStart(*dateBefore)) {
		return Filter{}, fmt.Errorf("%w: date_after %s is later than date_before %s",
			domain.ErrInvalidFilter, dateAfter.Format(time.DateOnly), dateBefore.Format(time.DateOnly))
	}

	return Filter{mimeTypes: normalized, dateAfter: dateAfter, dateBefore: dateBefore}, nil
}

// MimeTypes returns the normalized mime constraints.
func (f Filter) MimeTypes() []string { return f.mimeTypes }

// DateAfter returns the inclusive lower day bound.
func (f Filter) DateAfter() *types.Date { return f.dateAfter }

// DateBefore returns the inclusive upper day bound.
func (f Filter) DateBefore() *types.Date { return f.dateBefore }

// IsEmpty reports whether the filter has no constraints.
func (f Filter) IsEmpty() bool {
	return len(f.mimeTypes) == 0 && f.dateAfter == nil && f.dateBefore == nil
}

// Matches reports whether the record satisfies every constraint.
// A record without a modification time passes date bounds vacuously: a range
// it can neither satisfy nor violate does not exclude it. A record without a
// mime type cannot affirm a mime constraint and is excluded by one.
func (f Filter) Matches(rec domain.Record) bool {
	if len(f.mimeTypes) > 0 && !f.matchesMime(rec.MimeType) {
		return false
	}
	if rec.ModifiedTime == nil {
		return true
	}

	t := rec.ModifiedTime.UTC()
	if f.dateAfter != nil && t.Before(dayStart(*f.dateAfter)) {
		return false
	}
	if f.dateBefore != nil && !t.Before(dayStart(*f.dateBefore).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (f Filter) matchesMime(mimeType string) bool {
	for _, tok := range f.mimeTypes {
		if strings.Contains(tok, "/") {
			if tok == strings.ToLower(mimeType) {
				return true
			}
			continue
		}
		if tok == Category(mimeType) {
			return true
		}
	}
	return false
}

func dayStart(d types.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// DayStart returns the first instant of the bound's day in UTC.
func DayStart(d types.Date) time.Time { return dayStart(d) }

// DayEnd returns the last second of the bound's day in UTC.
func DayEnd(d types.Date) time.Time {
	return dayStart(d).Add(24*time.Hour - time.Second)
}
