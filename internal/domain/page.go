package domain

// DefaultPageSize is the page size when the caller does not specify one.
const DefaultPageSize = 25

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 500

// ClampPageSize returns the effective page size in [1, MaxPageSize].
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Edge pairs a record with the cursor that resumes iteration after it.
type Edge struct {
	Cursor string  `json:"cursor"`
	Node   *Record `json:"node"`
}

// PageInfo describes the boundaries of one page.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	StartCursor string `json:"startCursor,omitempty"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// Page is the envelope returned by a record query: one page of edges plus
// the total count of the whole filtered set. Constructed once per query
// execution, never persisted.
type Page struct {
	Edges      []Edge   `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount int64    `json:"totalCount"`
}
