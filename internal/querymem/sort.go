package querymem

import (
	"slices"
	"strings"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/value"
)

// Comparator returns a three-way comparison for o. Nulls order first
// ascending and last descending. Values of mismatched kinds fall back to
// comparing their keys so the order stays total.
func Comparator(o queryir.Ordering) func(a, b Entity) int {
	keys := slices.Clone(o.Keys)
	return func(a, b Entity) int {
		for _, k := range keys {
			av, bv := a.Value(k.Field), b.Value(k.Field)
			c, err := value.Compare(av, bv)
			if err != nil {
				c = strings.Compare(value.Key(av), value.Key(bv))
			}
			if c == 0 {
				continue
			}
			if k.Descending {
				return -c
			}
			return c
		}
		return 0
	}
}

// Filter returns the items m accepts, in their original order.
func Filter[E Entity](items []E, m Matcher) []E {
	out := make([]E, 0, len(items))
	for _, it := range items {
		if m(it) {
			out = append(out, it)
		}
	}
	return out
}

// Sort orders items in place. The sort is stable, so an empty ordering
// leaves items untouched and ties keep their input order.
func Sort[E Entity](items []E, o queryir.Ordering) {
	if o.IsEmpty() {
		return
	}
	cmp := Comparator(o)
	slices.SortStableFunc(items, func(a, b E) int { return cmp(a, b) })
}

// Apply filters items by p and orders the result by o. items is not
// modified.
func Apply[E Entity](items []E, p queryir.Predicate, o queryir.Ordering, opts ...Option) ([]E, error) {
	m, err := Compile(p, opts...)
	if err != nil {
		return nil, err
	}
	out := Filter(items, m)
	Sort(out, o)
	return out, nil
}
