package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fans out to the remote listing and the semantic index and merges both.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	// Drive lists the remote provider only, with keyword/metadata matching.
	Drive Mode = "drive"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Drive
}
