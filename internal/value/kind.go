package value

import (
	"fmt"
	"strings"
)

// Kind identifies the primitive type behind a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDecimal
	KindBool
	KindDateTime
	KindDate
	KindUUID
	KindEnum
	KindFlags
	KindCompound
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindDecimal:  "decimal",
	KindBool:     "bool",
	KindDateTime: "datetime",
	KindDate:     "date",
	KindUUID:     "uuid",
	KindEnum:     "enum",
	KindFlags:    "flags",
	KindCompound: "compound",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Supported reports whether k can back a registered field.
// KindNull is a value marker only.
func (k Kind) Supported() bool {
	return k > KindNull && k <= KindCompound
}

// Ordered reports whether values of this kind have a meaningful total order
// for relational and range operators.
func (k Kind) Ordered() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindDecimal, KindDateTime, KindDate, KindCompound:
		return true
	default:
		return false
	}
}

// ParseKind resolves a kind by its lower-case name ("int", "datetime", ...).
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n && k != KindNull {
			return k, nil
		}
	}
	return KindNull, fmt.Errorf("unsupported kind %q", name)
}
