// Package querymem evaluates predicate and ordering IR against in-memory
// entities.
//
// Compile turns a predicate into a tree of closures once; the resulting
// Matcher is then applied to any number of entities. The closures are
// immutable, so a Matcher may be shared between goroutines.
//
// A null field fails every positive value test. Negated tests (not equal,
// not like, not in, not between) are exact complements of their positive
// forms, so they match a null field.
package querymem

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/value"
)

// Entity exposes property values. value.Record implements it.
type Entity interface {
	Value(property string) value.Value
}

// Matcher reports whether an entity satisfies a compiled predicate.
type Matcher func(Entity) bool

// Option configures Compile.
type Option func(*options)

type options struct {
	culture language.Tag
}

// WithCulture sets the language whose casing rules apply to culture folding.
// The default is English.
func WithCulture(tag language.Tag) Option {
	return func(o *options) { o.culture = tag }
}

// Compile builds a Matcher for p. A nil predicate matches everything.
func Compile(p queryir.Predicate, opts ...Option) (Matcher, error) {
	o := options{culture: language.English}
	for _, opt := range opts {
		opt(&o)
	}
	b := &matcherBuilder{culture: o.culture}
	if p == nil {
		return func(Entity) bool { return true }, nil
	}
	return b.compile(p)
}

// MustCompile is like Compile but panics on error.
func MustCompile(p queryir.Predicate, opts ...Option) Matcher {
	m, err := Compile(p, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

type matcherBuilder struct {
	culture language.Tag
}

// folder returns the lowercasing function for f. A cases.Caser keeps state,
// so each call builds its own.
func (b *matcherBuilder) folder(f queryir.Fold) func(string) string {
	switch f {
	case queryir.FoldCulture:
		tag := b.culture
		return func(s string) string { return cases.Lower(tag).String(s) }
	case queryir.FoldInvariant:
		return func(s string) string { return cases.Lower(language.Und).String(s) }
	default:
		return nil
	}
}

func (b *matcherBuilder) compile(p queryir.Predicate) (Matcher, error) {
	switch n := p.(type) {
	case queryir.True:
		return func(Entity) bool { return true }, nil

	case queryir.And:
		ms, err := b.compileAll(n.Predicates)
		if err != nil {
			return nil, err
		}
		return func(e Entity) bool {
			for _, m := range ms {
				if !m(e) {
					return false
				}
			}
			return true
		}, nil

	case queryir.Or:
		ms, err := b.compileAll(n.Predicates)
		if err != nil {
			return nil, err
		}
		return func(e Entity) bool {
			for _, m := range ms {
				if m(e) {
					return true
				}
			}
			return false
		}, nil

	case queryir.Null:
		return func(e Entity) bool { return value.IsNull(e.Value(n.Field)) }, nil

	case queryir.NotNull:
		return func(e Entity) bool { return !value.IsNull(e.Value(n.Field)) }, nil

	case queryir.Compare:
		return b.compileCompare(n)

	case queryir.Contains:
		fold := b.folder(n.Fold)
		needle := n.Value
		if fold != nil {
			needle = fold(needle)
		}
		return func(e Entity) bool {
			s, ok := e.Value(n.Field).(value.String)
			if !ok {
				return n.Negated
			}
			hay := string(s)
			if fold != nil {
				hay = fold(hay)
			}
			return strings.Contains(hay, needle) != n.Negated
		}, nil

	case queryir.BitsAll:
		return func(e Entity) bool {
			bits, ok := bitsOf(e.Value(n.Field))
			return ok && bits&n.Mask == n.Mask
		}, nil

	case queryir.BitsAny:
		return func(e Entity) bool {
			bits, ok := bitsOf(e.Value(n.Field))
			return ok && bits&n.Mask != 0
		}, nil

	case queryir.Range:
		if value.IsNull(n.Lo) || value.IsNull(n.Hi) {
			return nil, fmt.Errorf("range on %s: null bound", n.Field)
		}
		inside := func(v value.Value) bool {
			if value.IsNull(v) {
				return false
			}
			lo, err := value.Compare(v, n.Lo)
			if err != nil {
				return false
			}
			hi, err := value.Compare(v, n.Hi)
			return err == nil && lo >= 0 && hi <= 0
		}
		return func(e Entity) bool {
			return inside(e.Value(n.Field)) != n.Negated
		}, nil

	case queryir.In:
		set := make(map[string]struct{}, len(n.Values))
		for _, v := range n.Values {
			set[value.Key(v)] = struct{}{}
		}
		return func(e Entity) bool {
			v := e.Value(n.Field)
			found := false
			if !value.IsNull(v) {
				_, found = set[value.Key(v)]
			}
			return found != n.Negated
		}, nil

	default:
		return nil, fmt.Errorf("unsupported predicate %T", p)
	}
}

func (b *matcherBuilder) compileAll(ps []queryir.Predicate) ([]Matcher, error) {
	ms := make([]Matcher, len(ps))
	for i, p := range ps {
		m, err := b.compile(p)
		if err != nil {
			return nil, err
		}
		ms[i] = m
	}
	return ms, nil
}

func (b *matcherBuilder) compileCompare(n queryir.Compare) (Matcher, error) {
	if value.IsNull(n.Value) {
		return nil, fmt.Errorf("compare on %s: null operand", n.Field)
	}
	// Not equal is evaluated as the complement of equal.
	op, negated := n.Op, false
	if op == queryir.OpNe {
		op, negated = queryir.OpEq, true
	}
	test := compareTest(op)
	if test == nil {
		return nil, fmt.Errorf("compare on %s: unknown operator %d", n.Field, n.Op)
	}

	fold := b.folder(n.Fold)
	literal := n.Value
	if s, ok := literal.(value.String); ok && fold != nil {
		literal = value.String(fold(string(s)))
	}

	match := func(v value.Value) bool {
		if value.IsNull(v) {
			return false
		}
		if s, ok := v.(value.String); ok && fold != nil {
			v = value.String(fold(string(s)))
		}
		r, err := value.Compare(v, literal)
		return err == nil && test(r)
	}
	return func(e Entity) bool {
		return match(e.Value(n.Field)) != negated
	}, nil
}

func compareTest(op queryir.CompareOp) func(int) bool {
	switch op {
	case queryir.OpEq:
		return func(r int) bool { return r == 0 }
	case queryir.OpGt:
		return func(r int) bool { return r > 0 }
	case queryir.OpGe:
		return func(r int) bool { return r >= 0 }
	case queryir.OpLt:
		return func(r int) bool { return r < 0 }
	case queryir.OpLe:
		return func(r int) bool { return r <= 0 }
	default:
		return nil
	}
}

func bitsOf(v value.Value) (uint64, bool) {
	switch b := v.(type) {
	case value.Flags:
		return uint64(b), true
	case value.Enum:
		return uint64(b), true
	case value.Int:
		return uint64(b), true
	default:
		return 0, false
	}
}
