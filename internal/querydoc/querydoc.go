// Package querydoc translates predicate and ordering IR into the filter and
// sort documents of document stores (e.g. `{"Age": {"$gt": 40}}`).
//
// Operand values take the same storage form as the SQL store (value.Native):
// instants, dates, decimals and compound keys become fixed-width text.
// Null fields fail every positive value test and satisfy every negated one;
// $ne, $nin and $not already match null and missing fields.
package querydoc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/value"
)

// Document operators.
const (
	OpAnd        = "$and"
	OpOr         = "$or"
	OpNor        = "$nor"
	OpNot        = "$not"
	OpEq         = "$eq"
	OpNe         = "$ne"
	OpGt         = "$gt"
	OpGte        = "$gte"
	OpLt         = "$lt"
	OpLte        = "$lte"
	OpIn         = "$in"
	OpNin        = "$nin"
	OpExists     = "$exists"
	OpRegex      = "$regex"
	OpOptions    = "$options"
	OpBitsAllSet = "$bitsAllSet"
	OpBitsAnySet = "$bitsAnySet"
)

// D is a filter document.
type D = map[string]any

// ErrUnsupported is returned for predicates no document operator expresses.
var ErrUnsupported = errors.New("not expressible as a document filter")

var compareOps = map[queryir.CompareOp]string{
	queryir.OpEq: OpEq,
	queryir.OpNe: OpNe,
	queryir.OpGt: OpGt,
	queryir.OpGe: OpGte,
	queryir.OpLt: OpLt,
	queryir.OpLe: OpLte,
}

// Filter translates p. A nil or True predicate yields the empty document,
// which matches everything; an empty Or yields a document matching nothing.
func Filter(p queryir.Predicate) (D, error) {
	switch n := p.(type) {
	case nil, queryir.True:
		return D{}, nil

	case queryir.And:
		return junction(OpAnd, n.Predicates, D{})

	case queryir.Or:
		// $nor of the always-true document is always false.
		return junction(OpOr, n.Predicates, D{OpNor: []any{D{}}})

	case queryir.Null:
		return D{n.Field: nil}, nil

	case queryir.NotNull:
		return D{n.Field: D{OpNe: nil}}, nil

	case queryir.Compare:
		return compare(n)

	case queryir.Contains:
		re := D{OpRegex: regexp.QuoteMeta(n.Value)}
		if n.Fold != queryir.FoldNone {
			re[OpOptions] = "i"
		}
		if n.Negated {
			return D{n.Field: D{OpNot: re}}, nil
		}
		return D{n.Field: re}, nil

	case queryir.BitsAll:
		return D{n.Field: D{OpBitsAllSet: int64(n.Mask)}}, nil

	case queryir.BitsAny:
		return D{n.Field: D{OpBitsAnySet: int64(n.Mask)}}, nil

	case queryir.Range:
		if value.IsNull(n.Lo) || value.IsNull(n.Hi) {
			return nil, fmt.Errorf("range on %s: null bound", n.Field)
		}
		lo, hi := value.Native(n.Lo), value.Native(n.Hi)
		if n.Negated {
			return D{OpOr: []any{
				D{n.Field: D{OpLt: lo}},
				D{n.Field: D{OpGt: hi}},
				D{n.Field: nil},
			}}, nil
		}
		return D{n.Field: D{OpGte: lo, OpLte: hi}}, nil

	case queryir.In:
		vals := make([]any, 0, len(n.Values))
		for _, v := range n.Values {
			vals = append(vals, value.Native(v))
		}
		if n.Negated {
			return D{n.Field: D{OpNin: vals}}, nil
		}
		return D{n.Field: D{OpIn: vals}}, nil

	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// junction renders an And or Or. A single child is returned unwrapped;
// no children yields empty.
func junction(op string, preds []queryir.Predicate, empty D) (D, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	if len(preds) == 1 {
		return Filter(preds[0])
	}
	docs := make([]any, len(preds))
	for i, p := range preds {
		d, err := Filter(p)
		if err != nil {
			return nil, err
		}
		docs[i] = d
	}
	return D{op: docs}, nil
}

func compare(n queryir.Compare) (D, error) {
	op, ok := compareOps[n.Op]
	if !ok {
		return nil, fmt.Errorf("compare on %s: unknown operator %d", n.Field, n.Op)
	}
	if value.IsNull(n.Value) {
		return nil, fmt.Errorf("compare on %s: null operand", n.Field)
	}

	s, isString := n.Value.(value.String)
	if isString && n.Fold != queryir.FoldNone {
		// Case-insensitive equality is an anchored, escaped regex.
		re := D{OpRegex: "^" + regexp.QuoteMeta(string(s)) + "$", OpOptions: "i"}
		switch n.Op {
		case queryir.OpEq:
			return D{n.Field: re}, nil
		case queryir.OpNe:
			return D{n.Field: D{OpNot: re}}, nil
		default:
			return nil, fmt.Errorf("case-insensitive %s on %s: %w", n.Op, n.Field, ErrUnsupported)
		}
	}

	return D{n.Field: D{op: value.Native(n.Value)}}, nil
}

// SortField is one key of a sort document. Order is 1 ascending, -1
// descending.
type SortField struct {
	Field string `json:"field"`
	Order int    `json:"order"`
}

// Sort translates o into sort document keys, in priority order.
func Sort(o queryir.Ordering) []SortField {
	out := make([]SortField, len(o.Keys))
	for i, k := range o.Keys {
		out[i] = SortField{Field: k.Field, Order: 1}
		if k.Descending {
			out[i].Order = -1
		}
	}
	return out
}
