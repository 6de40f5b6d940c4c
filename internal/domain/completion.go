package domain

import (
	"github.com/oapi-codegen/runtime/types"
)

// ListingPlan is a structured interpretation of a natural-language query,
// produced by the completion provider for the remote listing leg.
type ListingPlan struct {
	// Keywords are the name-match terms extracted from the query.
	Keywords []string
	// DateAfter and DateBefore are inclusive day bounds the query implies.
	// Explicit request filters always win over planned bounds.
	DateAfter  *types.Date
	DateBefore *types.Date
	// OrderBy is a provider sort expression, e.g. "modifiedTime desc".
	OrderBy string
}
