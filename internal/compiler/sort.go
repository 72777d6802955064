package compiler

import (
	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/queryir"
)

// CompileSort lowers sc to an ordering. A property already ordered by an
// earlier key is skipped, since a later key on it cannot change the order.
func CompileSort(sc *query.SortContext) (queryir.Ordering, error) {
	if sc == nil || sc.Len() == 0 {
		return queryir.Ordering{}, nil
	}
	reg := sc.Registry()

	var keys []queryir.SortKey
	seen := make(map[string]bool)
	for _, r := range sc.Requests() {
		sd, ok := reg.Sort(r.Field)
		if !ok {
			return queryir.Ordering{}, &CompileError{Field: r.Field, Message: "sort field is not registered"}
		}
		for _, p := range sd.Properties {
			if seen[p] {
				continue
			}
			seen[p] = true
			keys = append(keys, queryir.SortKey{Field: p, Descending: r.Direction == operator.Descending})
		}
	}
	return queryir.Ordering{Keys: keys}, nil
}

// Query is a compiled filter and ordering.
type Query struct {
	Filter queryir.Predicate
	Order  queryir.Ordering
}

// Compile lowers both contexts. Either may be nil.
func Compile(fc *query.FilterContext, sc *query.SortContext) (Query, error) {
	pred, err := CompileFilter(fc)
	if err != nil {
		return Query{}, err
	}
	order, err := CompileSort(sc)
	if err != nil {
		return Query{}, err
	}
	return Query{Filter: pred, Order: order}, nil
}
