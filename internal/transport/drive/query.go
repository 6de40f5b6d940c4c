package drive

import (
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
)

// QuerySpec is the structured input for the provider grammar translation.
type QuerySpec struct {
	// Keywords become name-contains terms, OR-joined with the raw query.
	Keywords []string
	// RawQuery is matched against full text so content-only hits survive.
	RawQuery string
	// MimeTokens are filter categories expanded via filter.MimesForCategory.
	MimeTokens []string
	// After and Before are inclusive day bounds on modifiedTime.
	After  *types.Date
	Before *types.Date
}

// BuildQuery renders the provider query grammar: a conjunction of a
// trashed guard, a keyword OR-group, a mime OR-group and modifiedTime
// bounds. Values are single-quote escaped.
//
//	trashed = false and (name contains 'invoice' or fullText contains 'march invoice')
//	and (mimeType = 'application/pdf') and modifiedTime >= '2024-03-01T00:00:00Z'
func BuildQuery(spec QuerySpec) string {
	terms := []string{"trashed = false"}

	if kw := keywordGroup(spec); kw != "" {
		terms = append(terms, kw)
	}
	if mg := mimeGroup(spec.MimeTokens); mg != "" {
		terms = append(terms, mg)
	}
	if spec.After != nil {
		terms = append(terms, "modifiedTime >= '"+filter.DayStart(*spec.After).Format(time.RFC3339)+"'")
	}
	if spec.Before != nil {
		terms = append(terms, "modifiedTime <= '"+filter.DayEnd(*spec.Before).Format(time.RFC3339)+"'")
	}

	return strings.Join(terms, " and ")
}

func keywordGroup(spec QuerySpec) string {
	var clauses []string
	seen := make(map[string]bool)

	for _, kw := range spec.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		clauses = append(clauses, "name contains '"+escape(kw)+"'")
	}

	raw := strings.TrimSpace(spec.RawQuery)
	if raw != "" {
		clauses = append(clauses, "fullText contains '"+escape(raw)+"'")
	}

	return group(clauses, " or ")
}

func mimeGroup(tokens []string) string {
	var clauses []string
	seen := make(map[string]bool)

	for _, tok := range tokens {
		for _, mime := range filter.MimesForCategory(tok) {
			if seen[mime] {
				continue
			}
			seen[mime] = true
			clauses = append(clauses, "mimeType = '"+escape(mime)+"'")
		}
	}

	return group(clauses, " or ")
}

func group(clauses []string, op string) string {
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return "(" + strings.Join(clauses, op) + ")"
	}
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escape(s string) string {
	return queryEscaper.Replace(s)
}
