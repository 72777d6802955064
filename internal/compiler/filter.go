package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/value"
)

// IdField is the filter field compiled ahead of all others.
const IdField = "Id"

// CompileError reports a request the compiler cannot lower. Contexts built
// by query.NewFilterContext never produce one; it guards hand-made IR input
// and registry drift.
type CompileError struct {
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Field, e.Message)
}

// CompileFilter lowers fc to a predicate. A nil or empty context compiles
// to queryir.True.
func CompileFilter(fc *query.FilterContext) (queryir.Predicate, error) {
	if fc == nil || fc.Len() == 0 {
		return queryir.True{}, nil
	}
	reg := fc.Registry()

	reqs := fc.Requests()
	slices.SortStableFunc(reqs, func(a, b query.FilterRequest) int {
		return idRank(a) - idRank(b)
	})

	preds := make([]queryir.Predicate, 0, len(reqs))
	for _, r := range reqs {
		fd, ok := reg.Filter(r.Field)
		if !ok {
			return nil, &CompileError{Field: r.Field, Message: "field is not registered"}
		}
		p, err := compileRequest(fd, r)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return queryir.AllOf(preds...), nil
}

func idRank(r query.FilterRequest) int {
	if strings.EqualFold(r.Field, IdField) {
		return 0
	}
	return 1
}

func compileRequest(fd *schema.FieldDescriptor, r query.FilterRequest) (queryir.Predicate, error) {
	if !fd.IsGroup() {
		return compileProperty(fd.Name, fd.Property, r.Op, r.Values)
	}

	var ands, ors []queryir.Predicate
	for _, part := range fd.Parts {
		p, err := compileProperty(fd.Name, part.Property, r.Op, r.Values)
		if err != nil {
			return nil, err
		}
		if part.Join == schema.JoinOr {
			ors = append(ors, p)
		} else {
			ands = append(ands, p)
		}
	}

	var groups []queryir.Predicate
	if len(ands) > 0 {
		groups = append(groups, queryir.AllOf(ands...))
	}
	if len(ors) > 0 {
		groups = append(groups, queryir.AnyOf(ors...))
	}
	return queryir.AllOf(groups...), nil
}

// compileProperty lowers one operator application on one property.
func compileProperty(name, property string, op operator.Op, values []value.Value) (queryir.Predicate, error) {
	base := op.Base()
	twn := op.Has(operator.TrueWhenNull)
	orNull := func(p queryir.Predicate) queryir.Predicate {
		if !twn {
			return p
		}
		return queryir.Or{Predicates: []queryir.Predicate{p, queryir.Null{Field: property}}}
	}
	arityErr := func() error {
		return &CompileError{Field: name, Message: fmt.Sprintf("%s expects %s operands, got %d", base, op.Arity(), len(values))}
	}

	switch op.Arity() {
	case operator.Arity0:
		if base == operator.IsNull {
			return queryir.Null{Field: property}, nil
		}
		// Kept even though it is always true.
		return orNull(queryir.NotNull{Field: property}), nil

	case operator.Arity1:
		if len(values) != 1 {
			return nil, arityErr()
		}
		v := values[0]
		if value.IsNull(v) {
			switch base {
			case operator.Equal:
				return queryir.Null{Field: property}, nil
			case operator.NotEqual:
				return queryir.NotNull{Field: property}, nil
			default:
				return nil, &CompileError{Field: name, Message: fmt.Sprintf("null operand with %s", base)}
			}
		}
		p, err := compileScalar(name, property, op, v)
		if err != nil {
			return nil, err
		}
		return orNull(p), nil

	case operator.Arity2:
		if len(values) != 2 {
			return nil, arityErr()
		}
		return orNull(queryir.Range{
			Field:   property,
			Lo:      values[0],
			Hi:      values[1],
			Negated: base == operator.NotBetween,
		}), nil

	default:
		if len(values) == 0 {
			return nil, arityErr()
		}
		return orNull(queryir.In{
			Field:   property,
			Values:  slices.Clone(values),
			Negated: base == operator.NotIn,
		}), nil
	}
}

var compareOps = map[operator.Op]queryir.CompareOp{
	operator.Equal:          queryir.OpEq,
	operator.NotEqual:       queryir.OpNe,
	operator.Greater:        queryir.OpGt,
	operator.GreaterOrEqual: queryir.OpGe,
	operator.Less:           queryir.OpLt,
	operator.LessOrEqual:    queryir.OpLe,
}

func compileScalar(name, property string, op operator.Op, v value.Value) (queryir.Predicate, error) {
	base := op.Base()
	if cmp, ok := compareOps[base]; ok {
		return queryir.Compare{Field: property, Op: cmp, Value: v, Fold: foldOf(op)}, nil
	}

	switch base {
	case operator.Like, operator.NotLike:
		s, ok := v.(value.String)
		if !ok {
			return nil, &CompileError{Field: name, Message: fmt.Sprintf("%s needs a string operand, got %s", base, v.Kind())}
		}
		return queryir.Contains{
			Field:   property,
			Value:   string(s),
			Fold:    foldOf(op),
			Negated: base == operator.NotLike,
		}, nil
	case operator.BitsAnd, operator.BitsOr:
		f, ok := v.(value.Flags)
		if !ok {
			return nil, &CompileError{Field: name, Message: fmt.Sprintf("%s needs a flags operand, got %s", base, v.Kind())}
		}
		if base == operator.BitsAnd {
			return queryir.BitsAll{Field: property, Mask: uint64(f)}, nil
		}
		return queryir.BitsAny{Field: property, Mask: uint64(f)}, nil
	}
	return nil, &CompileError{Field: name, Message: fmt.Sprintf("unsupported operator %s", op)}
}

func foldOf(op operator.Op) queryir.Fold {
	switch op.Fold() {
	case operator.CaseInsensitive:
		return queryir.FoldCulture
	case operator.CaseInsensitiveInvariant:
		return queryir.FoldInvariant
	default:
		return queryir.FoldNone
	}
}
