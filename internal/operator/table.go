package operator

import "github.com/roach88/filterql/internal/value"

// Typical allowed sets per kind, before nullability.
const (
	typicalString   = Equal | NotEqual | Relational | In | NotIn | Like | NotLike | CaseInsensitive | CaseInsensitiveInvariant
	typicalOrdered  = Equal | NotEqual | Relational | In | NotIn | Between | NotBetween
	typicalBool     = Equal | NotEqual
	typicalDiscrete = Equal | NotEqual | In | NotIn
	typicalFlags    = typicalDiscrete | BitsAnd | BitsOr

	// Nullable is added to the allowed set of nullable fields.
	Nullable = IsNull | IsNotNull | TrueWhenNull
)

// Typical returns the allowed set and default operator for a field of the
// given kind. It reports false for kinds that cannot back a field.
func Typical(kind value.Kind, nullable bool) (allowed, def Op, ok bool) {
	switch kind {
	case value.KindString:
		allowed, def = typicalString, Like|CaseInsensitive
	case value.KindInt, value.KindFloat, value.KindDecimal,
		value.KindDateTime, value.KindDate, value.KindCompound:
		allowed, def = typicalOrdered, Between
	case value.KindBool:
		allowed, def = typicalBool, Equal
	case value.KindUUID, value.KindEnum:
		allowed, def = typicalDiscrete, Equal
	case value.KindFlags:
		allowed, def = typicalFlags, BitsOr
	default:
		return None, None, false
	}
	if nullable {
		allowed |= Nullable
	}
	return allowed, def, true
}

// defaultPriority is the order DefaultFromAllowed tries base operators in.
var defaultPriority = []Op{
	Between, Like, Equal, In, BitsOr, BitsAnd,
	GreaterOrEqual, LessOrEqual, Greater, Less,
	NotEqual, NotIn, NotLike, NotBetween,
	IsNotNull, IsNull,
}

// DefaultFromAllowed picks a default operator from an allowed set: the
// first base operator of the priority list present in allowed, with
// CaseInsensitive added for the case folding operators when allowed.
// It returns None when allowed has no base operator.
func DefaultFromAllowed(allowed Op) Op {
	for _, b := range defaultPriority {
		if allowed&b == 0 {
			continue
		}
		if CaseFolding&b != 0 && allowed&CaseInsensitive != 0 {
			return b | CaseInsensitive
		}
		return b
	}
	return None
}
