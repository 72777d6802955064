package value

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
)

// Compare orders a and b. Null sorts before every non-null value and two
// nulls are equal. Values of different non-null kinds cannot be compared.
//
// Every kind has a total order here (false < true, enums and flags by their
// numeric value, UUIDs bytewise) so that any field can back a sort key;
// Kind.Ordered governs which kinds accept relational operators.
func Compare(a, b Value) (int, error) {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0, nil
	case an:
		return -1, nil
	case bn:
		return 1, nil
	}
	if a.Kind() != b.Kind() {
		return 0, fmt.Errorf("cannot compare %s with %s", a.Kind(), b.Kind())
	}

	switch av := a.(type) {
	case String:
		return strings.Compare(string(av), string(b.(String))), nil
	case Int:
		return cmp.Compare(av, b.(Int)), nil
	case Float:
		return cmp.Compare(av, b.(Float)), nil
	case Decimal:
		return av.Cmp(b.(Decimal).Decimal), nil
	case Bool:
		bv := b.(Bool)
		switch {
		case av == bv:
			return 0, nil
		case !bool(av):
			return -1, nil
		default:
			return 1, nil
		}
	case DateTime:
		return av.Time().Compare(b.(DateTime).Time()), nil
	case Date:
		return av.Time().Compare(b.(Date).Time()), nil
	case UUID:
		bv := b.(UUID)
		return bytes.Compare(av[:], bv[:]), nil
	case Enum:
		return cmp.Compare(av, b.(Enum)), nil
	case Flags:
		return cmp.Compare(av, b.(Flags)), nil
	case Compound:
		return compareCompound(av, b.(Compound)), nil
	default:
		return 0, fmt.Errorf("cannot compare values of type %T", a)
	}
}

// MustCompare is like Compare but panics on a kind mismatch.
// Use only where both kinds were validated upstream.
func MustCompare(a, b Value) int {
	c, err := Compare(a, b)
	if err != nil {
		panic(err)
	}
	return c
}

// Equal reports whether a and b hold the same value. Values of different
// kinds are never equal; two nulls are equal.
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

// Key returns a string that identifies v for set membership. Equal values
// have equal keys (for decimals, 1.0 and 1.00 share a key).
func Key(v Value) string {
	if IsNull(v) {
		return "null"
	}
	return v.Kind().String() + ":" + Format(v)
}

func compareCompound(a, b Compound) int {
	n := min(len(a.parts), len(b.parts))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(a.parts[i], b.parts[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.parts), len(b.parts))
}
