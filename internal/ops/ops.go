// Package ops implements the operations exposed to the CLI, web, and MCP
// layers: archive import, listing, retrieval, search, deletion, and index
// rebuild. Each operation takes an Input struct and returns an Output struct;
// failures are *errors.Error values.
package ops

// Pagination limits
const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Pagination contains pagination metadata for list and search operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies a default and an upper bound to a caller-supplied limit.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
