package domain

// Page is one window of a listing along with the caller's count bookkeeping.
type Page struct {
	Items          []Document `json:"items"`
	TotalDocuments int64      `json:"totalDocuments"`
	Page           int        `json:"page"`
	Limit          int        `json:"limit"`
	Skip           int        `json:"skip"`
	// NewQuery is always reset so the client reuses TotalDocuments until its
	// query shape changes.
	NewQuery bool `json:"newQuery"`
}

// TotalPages returns the number of pages at the current limit.
func (p Page) TotalPages() int {
	if p.Limit <= 0 || p.TotalDocuments <= 0 {
		return 0
	}
	return int((p.TotalDocuments + int64(p.Limit) - 1) / int64(p.Limit))
}
