package query

// Structural and side-channel keys recognised in a raw query map.
const (
	KeySort           = "sort"
	KeyLimit          = "limit"
	KeySkip           = "skip"
	KeyPage           = "page"
	KeySelect         = "select"
	KeyNewQuery       = "newQuery"
	KeyTotalDocuments = "totalDocuments"
	KeyText           = "$text"
)

// optionKeywords are routed to Options verbatim. The set is closed and never
// modified after init.
var optionKeywords = map[string]struct{}{
	KeySort:          {},
	KeyLimit:         {},
	KeySkip:          {},
	"batchSize":      {},
	"readPreference": {},
	"hint":           {},
	"comment":        {},
	"lean":           {},
	"populate":       {},
	"maxTimeMS":      {},
	"strict":         {},
	"collation":      {},
	"session":        {},
	"explain":        {},
	"tailable":       {},
}

// bookkeepingKeys belong to the caller's pagination state, never the filter.
var bookkeepingKeys = map[string]struct{}{
	KeyPage:           {},
	KeySelect:         {},
	KeyNewQuery:       {},
	KeyTotalDocuments: {},
}

// IsOptionKeyword reports whether key is a reserved execution option.
func IsOptionKeyword(key string) bool {
	_, ok := optionKeywords[key]
	return ok
}

// IsReserved reports whether key can never name a filter field.
func IsReserved(key string) bool {
	if IsOptionKeyword(key) {
		return true
	}
	_, ok := bookkeepingKeys[key]
	return ok
}

// Short operator names and the tokens they compile to.
const (
	OpEq    = "$eq"
	OpNe    = "$ne"
	OpGt    = "$gt"
	OpGte   = "$gte"
	OpLt    = "$lt"
	OpLte   = "$lte"
	OpIn    = "$in"
	OpNin   = "$nin"
	OpText  = "$text"
	OpRegex = "$regex"
)

var operatorTokens = map[string]string{
	"eq":   OpEq,
	"ne":   OpNe,
	"gt":   OpGt,
	"gte":  OpGte,
	"lt":   OpLt,
	"lte":  OpLte,
	"in":   OpIn,
	"nin":  OpNin,
	"text": OpText,
}

// OperatorToken returns the target token for a short operator name. Unknown
// names are returned unchanged.
func OperatorToken(short string) string {
	if token, ok := operatorTokens[short]; ok {
		return token
	}
	return short
}
