package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/filterql/internal/value"
)

// Entity is the receiver name used when rendering expressions.
const Entity = "entity"

// Binding strength of rendered expressions.
const (
	precOr = iota + 1
	precAnd
	precAtom
)

// String renders p as a readable boolean expression, for example
//
//	entity.Id==5 && lower(entity.Username)=="admin"
//
// The rendering is for diagnostics and golden tests; it is not parsed back.
func String(p Predicate) string {
	s, _ := render(p)
	return s
}

func render(p Predicate) (string, int) {
	switch n := p.(type) {
	case nil, True:
		return "true", precAtom
	case And:
		if len(n.Predicates) == 0 {
			return "true", precAtom
		}
		return joinRendered(n.Predicates, " && "), precAnd
	case Or:
		if len(n.Predicates) == 0 {
			return "false", precAtom
		}
		return joinRendered(n.Predicates, " || "), precOr
	case Null:
		return field(n.Field) + "==null", precAtom
	case NotNull:
		return field(n.Field) + "!=null", precAtom
	case Compare:
		return folded(n.Field, n.Fold) + n.Op.String() + literal(n.Value, n.Fold), precAtom
	case Contains:
		s := fmt.Sprintf("%s.Contains(%s)", folded(n.Field, n.Fold), literal(value.String(n.Value), n.Fold))
		if n.Negated {
			s = "!" + s
		}
		return s, precAtom
	case BitsAll:
		return fmt.Sprintf("(%s&%d)==%d", field(n.Field), n.Mask, n.Mask), precAtom
	case BitsAny:
		return fmt.Sprintf("(%s&%d)!=0", field(n.Field), n.Mask), precAtom
	case Range:
		f := field(n.Field)
		if n.Negated {
			return fmt.Sprintf("!(%s>=%s && %s<=%s)", f, literal(n.Lo, FoldNone), f, literal(n.Hi, FoldNone)), precAtom
		}
		return fmt.Sprintf("%s>=%s && %s<=%s", f, literal(n.Lo, FoldNone), f, literal(n.Hi, FoldNone)), precAnd
	case In:
		items := make([]string, len(n.Values))
		for i, v := range n.Values {
			items[i] = literal(v, FoldNone)
		}
		kw := " in "
		if n.Negated {
			kw = " not in "
		}
		return field(n.Field) + kw + "[" + strings.Join(items, ", ") + "]", precAtom
	default:
		return fmt.Sprintf("<%T>", p), precAtom
	}
}

// joinRendered parenthesizes every non-atomic child so the tree shape
// stays visible.
func joinRendered(ps []Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, c := range ps {
		s, cp := render(c)
		if cp != precAtom && len(ps) > 1 {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

func field(name string) string { return Entity + "." + name }

func folded(name string, f Fold) string {
	switch f {
	case FoldCulture:
		return "lower(" + field(name) + ")"
	case FoldInvariant:
		return "lowerInvariant(" + field(name) + ")"
	default:
		return field(name)
	}
}

func literal(v value.Value, f Fold) string {
	switch val := v.(type) {
	case nil, value.Null:
		return "null"
	case value.String:
		s := string(val)
		if f != FoldNone {
			s = strings.ToLower(s)
		}
		return strconv.Quote(s)
	case value.Int, value.Float, value.Bool, value.Enum, value.Flags:
		return value.Format(v)
	case value.Decimal:
		return value.Format(v)
	default:
		return strconv.Quote(value.Format(v))
	}
}

// String renders o as a comma-separated key list, for example
// "LastName asc, Created desc".
func (o Ordering) String() string {
	if o.IsEmpty() {
		return "(none)"
	}
	parts := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		dir := "asc"
		if k.Descending {
			dir = "desc"
		}
		parts[i] = k.Field + " " + dir
	}
	return strings.Join(parts, ", ")
}
