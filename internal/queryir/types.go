package queryir

import "github.com/roach88/filterql/internal/value"

// Predicate is a boolean condition over one entity.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Fold selects case folding for string comparisons.
type Fold uint8

const (
	// FoldNone compares ordinally.
	FoldNone Fold = iota
	// FoldCulture lowercases with the configured culture's rules.
	FoldCulture
	// FoldInvariant lowercases with culture-independent rules.
	FoldInvariant
)

func (f Fold) String() string {
	switch f {
	case FoldCulture:
		return "culture"
	case FoldInvariant:
		return "invariant"
	default:
		return "none"
	}
}

// CompareOp is the comparison of a Compare node.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

var compareSymbols = [...]string{"==", "!=", ">", ">=", "<", "<="}

func (o CompareOp) String() string {
	if int(o) < len(compareSymbols) {
		return compareSymbols[o]
	}
	return "?"
}

// True matches every entity.
type True struct{}

func (True) predicateNode() {}

// And matches when every predicate matches. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or matches when any predicate matches. An empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Null matches when Field is null.
type Null struct {
	Field string
}

func (Null) predicateNode() {}

// NotNull matches when Field holds a value.
type NotNull struct {
	Field string
}

func (NotNull) predicateNode() {}

// Compare matches when Field <Op> Value holds. Fold applies to strings
// only; both sides are lowercased before comparing.
type Compare struct {
	Field string
	Op    CompareOp
	Value value.Value
	Fold  Fold
}

func (Compare) predicateNode() {}

// Contains matches when the string Field contains Value as a substring.
// The operand is literal text, never a pattern.
type Contains struct {
	Field   string
	Value   string
	Fold    Fold
	Negated bool
}

func (Contains) predicateNode() {}

// BitsAll matches when every bit of Mask is set in Field.
type BitsAll struct {
	Field string
	Mask  uint64
}

func (BitsAll) predicateNode() {}

// BitsAny matches when at least one bit of Mask is set in Field.
type BitsAny struct {
	Field string
	Mask  uint64
}

func (BitsAny) predicateNode() {}

// Range matches when Lo <= Field <= Hi (both bounds inclusive). Negated
// matches when Field < Lo or Field > Hi.
type Range struct {
	Field   string
	Lo, Hi  value.Value
	Negated bool
}

func (Range) predicateNode() {}

// In matches when Field equals one of Values. Negated matches when it
// equals none of them.
type In struct {
	Field   string
	Values  []value.Value
	Negated bool
}

func (In) predicateNode() {}

// SortKey orders by one property.
type SortKey struct {
	Field      string
	Descending bool
}

// Ordering is a prioritized list of sort keys. The zero value applies no
// reordering.
type Ordering struct {
	Keys []SortKey
}

// IsEmpty reports whether o has no keys.
func (o Ordering) IsEmpty() bool { return len(o.Keys) == 0 }

// AllOf conjoins ps, collapsing a single predicate and dropping True.
func AllOf(ps ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range ps {
		if _, ok := p.(True); ok || p == nil {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return True{}
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// AnyOf disjoins ps, collapsing a single predicate.
func AnyOf(ps ...Predicate) Predicate {
	if len(ps) == 1 {
		return ps[0]
	}
	return Or{Predicates: ps}
}

// Walk calls fn for p and, while fn returns true, for every descendant in
// depth-first order.
func Walk(p Predicate, fn func(Predicate) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case And:
		for _, c := range n.Predicates {
			Walk(c, fn)
		}
	case Or:
		for _, c := range n.Predicates {
			Walk(c, fn)
		}
	}
}

// Fields returns the distinct properties p refers to, in first-use order.
func Fields(p Predicate) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	Walk(p, func(n Predicate) bool {
		switch n := n.(type) {
		case Null:
			add(n.Field)
		case NotNull:
			add(n.Field)
		case Compare:
			add(n.Field)
		case Contains:
			add(n.Field)
		case BitsAll:
			add(n.Field)
		case BitsAny:
			add(n.Field)
		case Range:
			add(n.Field)
		case In:
			add(n.Field)
		}
		return true
	})
	return out
}
