package query

import "strings"

// Default compiler settings.
const (
	DefaultLimit        = 10
	DefaultMaxLimit     = 25
	DefaultSortField    = "createdAt"
	DefaultTiebreaker   = "_id"
	DefaultVersionField = "__v"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithDefaultLimit sets the page size used when the caller supplies none or
// an invalid one.
func WithDefaultLimit(limit int) Option {
	return func(c *Compiler) {
		if limit > 0 {
			c.defaultLimit = limit
		}
	}
}

// WithMaxLimit sets the largest page size a caller may request.
func WithMaxLimit(limit int) Option {
	return func(c *Compiler) {
		if limit > 0 {
			c.maxLimit = limit
		}
	}
}

// WithDefaultSortField sets the field sorted on, descending, when the caller
// supplies no sort.
func WithDefaultSortField(field string) Option {
	return func(c *Compiler) {
		if strings.TrimSpace(field) != "" {
			c.defaultSort = strings.TrimSpace(field)
		}
	}
}

// WithTiebreakerField sets the unique field appended to single-key sorts.
func WithTiebreakerField(field string) Option {
	return func(c *Compiler) {
		if strings.TrimSpace(field) != "" {
			c.tiebreaker = strings.TrimSpace(field)
		}
	}
}

// WithVersionField sets the system field that is always excluded from
// projections.
func WithVersionField(field string) Option {
	return func(c *Compiler) {
		if strings.TrimSpace(field) != "" {
			c.versionField = strings.TrimSpace(field)
		}
	}
}
