package drive

import (
	"strings"
	"testing"
	"time"

	"github.com/oapi-codegen/runtime/types"
)

func datePtr(year int, month time.Month, day int) *types.Date {
	return &types.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func TestBuildQuery_RawOnly(t *testing.T) {
	got := BuildQuery(QuerySpec{RawQuery: "march invoices"})
	want := "trashed = false and fullText contains 'march invoices'"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQuery_KeywordsAndRaw(t *testing.T) {
	got := BuildQuery(QuerySpec{
		Keywords: []string{"invoice", "factura"},
		RawQuery: "march invoices",
	})
	want := "trashed = false and (name contains 'invoice' or name contains 'factura' or fullText contains 'march invoices')"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQuery_DeduplicatesKeywords(t *testing.T) {
	got := BuildQuery(QuerySpec{Keywords: []string{"Invoice", "invoice", " ", ""}})
	if strings.Count(got, "name contains") != 1 {
		t.Errorf("expected one name clause, got %q", got)
	}
}

func TestBuildQuery_MimeExpansion(t *testing.T) {
	got := BuildQuery(QuerySpec{RawQuery: "q", MimeTokens: []string{"pdf"}})
	if !strings.Contains(got, "mimeType = 'application/pdf'") {
		t.Errorf("missing pdf mime clause: %q", got)
	}

	got = BuildQuery(QuerySpec{RawQuery: "q", MimeTokens: []string{"doc"}})
	if strings.Count(got, "mimeType = ") != 3 {
		t.Errorf("doc category should expand to 3 mime clauses: %q", got)
	}
	if !strings.Contains(got, "(mimeType = ") {
		t.Errorf("multiple mime clauses should be grouped: %q", got)
	}
}

func TestBuildQuery_UnknownMimeTokenSkipped(t *testing.T) {
	got := BuildQuery(QuerySpec{RawQuery: "q", MimeTokens: []string{"hologram"}})
	if strings.Contains(got, "mimeType") {
		t.Errorf("unknown category must not reach the provider: %q", got)
	}
}

func TestBuildQuery_DateBounds(t *testing.T) {
	got := BuildQuery(QuerySpec{
		RawQuery: "q",
		After:    datePtr(2024, time.March, 1),
		Before:   datePtr(2024, time.March, 31),
	})
	if !strings.Contains(got, "modifiedTime >= '2024-03-01T00:00:00Z'") {
		t.Errorf("missing inclusive lower bound: %q", got)
	}
	if !strings.Contains(got, "modifiedTime <= '2024-03-31T23:59:59Z'") {
		t.Errorf("missing inclusive upper bound: %q", got)
	}
}

func TestBuildQuery_Escaping(t *testing.T) {
	got := BuildQuery(QuerySpec{RawQuery: `bob's re\port`})
	if !strings.Contains(got, `fullText contains 'bob\'s re\\port'`) {
		t.Errorf("quotes and backslashes must be escaped: %q", got)
	}
}

func TestBuildQuery_Combined(t *testing.T) {
	got := BuildQuery(QuerySpec{
		Keywords:   []string{"invoice"},
		RawQuery:   "invoices from march",
		MimeTokens: []string{"pdf"},
		After:      datePtr(2024, time.March, 1),
		Before:     datePtr(2024, time.March, 31),
	})
	want := "trashed = false" +
		" and (name contains 'invoice' or fullText contains 'invoices from march')" +
		" and mimeType = 'application/pdf'" +
		" and modifiedTime >= '2024-03-01T00:00:00Z'" +
		" and modifiedTime <= '2024-03-31T23:59:59Z'"
	if got != want {
		t.Errorf("BuildQuery =\n%q\nwant\n%q", got, want)
	}
}
