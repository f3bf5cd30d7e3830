package query

// Compiler turns raw query maps into Results. A Compiler holds only immutable
// settings and is safe for concurrent use.
type Compiler struct {
	defaultLimit int
	maxLimit     int
	defaultSort  string
	tiebreaker   string
	versionField string
}

// New returns a Compiler with the given options applied over the defaults.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		defaultLimit: DefaultLimit,
		maxLimit:     DefaultMaxLimit,
		defaultSort:  DefaultSortField,
		tiebreaker:   DefaultTiebreaker,
		versionField: DefaultVersionField,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultLimit > c.maxLimit {
		c.defaultLimit = c.maxLimit
	}
	return c
}

var defaultCompiler = New()

// Compile compiles raw with the default settings.
func Compile(raw *Map) Result {
	return defaultCompiler.Compile(raw)
}

// MaxLimit returns the largest page size the compiler emits.
func (c *Compiler) MaxLimit() int { return c.maxLimit }

// Compile classifies raw, rewrites its field conditions and resolves sort and
// pagination defaults. A nil map yields the default query.
func (c *Compiler) Compile(raw *Map) Result {
	if raw == nil {
		limit, skip := c.resolvePagination(Value{}, Value{}, Value{})
		return Result{
			Filter: Filter{},
			Options: Options{
				Sort:  c.resolveSort(nil),
				Limit: limit,
				Skip:  skip,
			},
		}
	}

	b := classify(raw)
	limit, skip := c.resolvePagination(b.limit, b.page, b.skip)

	return Result{
		Filter:     c.rewrite(b.fields),
		Projection: c.resolveProjection(b.projection),
		Options: Options{
			Sort:  c.resolveSort(parseSort(b.sort)),
			Limit: limit,
			Skip:  skip,
			Extra: b.extra,
		},
		NewQuery:       parseFlag(b.newQuery),
		TotalDocuments: parseCount(b.totalDocuments),
	}
}

// buckets is the classified form of a raw query map.
type buckets struct {
	fields []Pair
	extra  []Clause

	sort  Value
	limit Value
	skip  Value

	projection     Value
	page           Value
	newQuery       Value
	totalDocuments Value
}

func classify(raw *Map) buckets {
	var b buckets
	for _, p := range raw.Pairs() {
		if !p.Value.IsDefined() {
			continue
		}
		switch p.Key {
		case KeySort:
			b.sort = p.Value
		case KeyLimit:
			b.limit = p.Value
		case KeySkip:
			b.skip = p.Value
		case KeySelect:
			b.projection = p.Value
		case KeyPage:
			b.page = p.Value
		case KeyNewQuery:
			b.newQuery = p.Value
		case KeyTotalDocuments:
			b.totalDocuments = p.Value
		default:
			if IsOptionKeyword(p.Key) {
				b.extra = setClause(b.extra, p.Key, p.Value)
				continue
			}
			b.fields = append(b.fields, p)
		}
	}
	return b
}

func setClause(clauses []Clause, op string, v Value) []Clause {
	for i := range clauses {
		if clauses[i].Op == op {
			clauses[i].Operand = v
			return clauses
		}
	}
	return append(clauses, Clause{Op: op, Operand: v})
}
