package operator

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Op is a bitset of base operators and modifiers.
type Op uint32

// Base operators.
const (
	Equal Op = 1 << iota
	NotEqual
	Greater
	GreaterOrEqual
	Less
	LessOrEqual
	IsNull
	IsNotNull
	In
	NotIn
	Between
	NotBetween
	Like
	NotLike
	BitsAnd
	BitsOr

	// Modifiers.
	TrueWhenNull
	CaseInsensitive
	CaseInsensitiveInvariant
)

// None is the empty set.
const None Op = 0

const (
	// BaseMask covers every base operator bit.
	BaseMask = Equal | NotEqual | Greater | GreaterOrEqual | Less | LessOrEqual |
		IsNull | IsNotNull | In | NotIn | Between | NotBetween | Like | NotLike |
		BitsAnd | BitsOr

	// ModifierMask covers every modifier bit.
	ModifierMask = TrueWhenNull | CaseInsensitive | CaseInsensitiveInvariant

	// Relational operators have no negated form.
	Relational = Greater | GreaterOrEqual | Less | LessOrEqual

	// CaseFolding operators accept CaseInsensitive and CaseInsensitiveInvariant.
	CaseFolding = Equal | NotEqual | Like | NotLike

	// NullTests are the zero-operand operators.
	NullTests = IsNull | IsNotNull

	foldModifiers = CaseInsensitive | CaseInsensitiveInvariant
)

var opNames = []struct {
	op   Op
	name string
}{
	{Equal, "Equal"},
	{NotEqual, "NotEqual"},
	{Greater, "Greater"},
	{GreaterOrEqual, "GreaterOrEqual"},
	{Less, "Less"},
	{LessOrEqual, "LessOrEqual"},
	{IsNull, "IsNull"},
	{IsNotNull, "IsNotNull"},
	{In, "In"},
	{NotIn, "NotIn"},
	{Between, "Between"},
	{NotBetween, "NotBetween"},
	{Like, "Like"},
	{NotLike, "NotLike"},
	{BitsAnd, "BitsAnd"},
	{BitsOr, "BitsOr"},
	{TrueWhenNull, "TrueWhenNull"},
	{CaseInsensitive, "CaseInsensitive"},
	{CaseInsensitiveInvariant, "CaseInsensitiveInvariant"},
}

// negations pairs each negatable base operator with its opposite.
var negations = map[Op]Op{
	Equal:      NotEqual,
	NotEqual:   Equal,
	In:         NotIn,
	NotIn:      In,
	Between:    NotBetween,
	NotBetween: Between,
	Like:       NotLike,
	NotLike:    Like,
	IsNull:     IsNotNull,
	IsNotNull:  IsNull,
}

// Base returns the base operator bits of o.
func (o Op) Base() Op { return o & BaseMask }

// Modifiers returns the modifier bits of o.
func (o Op) Modifiers() Op { return o & ModifierMask }

// Has reports whether every bit of m is set in o.
func (o Op) Has(m Op) bool { return m != None && o&m == m }

// Contains reports whether o, read as an allowed set, permits other.
func (o Op) Contains(other Op) bool { return o&other == other }

// Arity is the number of operands an operator takes.
type Arity uint8

const (
	Arity0    Arity = iota // IsNull, IsNotNull
	Arity1                 // comparisons, Like, bit tests
	Arity2                 // Between, NotBetween
	ArityMany              // In, NotIn
)

func (a Arity) String() string {
	switch a {
	case Arity0:
		return "0"
	case Arity1:
		return "1"
	case Arity2:
		return "2"
	default:
		return "many"
	}
}

// Arity returns the operand count of o's base operator.
func (o Op) Arity() Arity {
	switch o.Base() {
	case IsNull, IsNotNull:
		return Arity0
	case Between, NotBetween:
		return Arity2
	case In, NotIn:
		return ArityMany
	default:
		return Arity1
	}
}

// Negate flips the base operator, keeping modifiers. Relational operators
// and the bit tests have no negated form and report false.
func (o Op) Negate() (Op, bool) {
	n, ok := negations[o.Base()]
	if !ok {
		return o, false
	}
	return n | o.Modifiers(), true
}

// Errors returned by Validate.
var (
	ErrNoBase          = errors.New("operator has no base operator")
	ErrMultipleBase    = errors.New("operator has more than one base operator")
	ErrConflictingFold = errors.New("CaseInsensitive and CaseInsensitiveInvariant are mutually exclusive")
	ErrFoldNotAllowed  = errors.New("case folding applies only to Equal, NotEqual, Like and NotLike")
)

// Validate checks that o is a single usable operator.
func (o Op) Validate() error {
	switch n := bits.OnesCount32(uint32(o.Base())); {
	case n == 0:
		return ErrNoBase
	case n > 1:
		return fmt.Errorf("%w: %s", ErrMultipleBase, o)
	}
	if o.Has(foldModifiers) {
		return ErrConflictingFold
	}
	if o&foldModifiers != 0 && !CaseFolding.Contains(o.Base()) {
		return fmt.Errorf("%w: %s", ErrFoldNotAllowed, o)
	}
	return nil
}

// Single reports whether o has exactly one base bit.
func (o Op) Single() bool {
	return bits.OnesCount32(uint32(o.Base())) == 1
}

// Fold returns the case folding modifier of o, or None.
func (o Op) Fold() Op { return o & foldModifiers }

// String renders o as names joined by '|', e.g. "Like|CaseInsensitive".
func (o Op) String() string {
	if o == None {
		return "None"
	}
	var parts []string
	for _, n := range opNames {
		if o&n.op != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := o &^ (BaseMask | ModifierMask); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseName parses the String form back into an Op. Names are matched
// case-insensitively; an empty string parses to None.
func ParseName(s string) (Op, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, nil
	}
	var o Op
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range opNames {
			if strings.EqualFold(part, n.name) {
				o |= n.op
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown operator %q", part)
		}
	}
	return o, nil
}

// Bases returns every base operator set in o, in declaration order.
func (o Op) Bases() []Op {
	var out []Op
	for b := Equal; b <= BitsOr; b <<= 1 {
		if o&b != 0 {
			out = append(out, b)
		}
	}
	return out
}
