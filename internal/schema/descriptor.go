package schema

import (
	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/value"
)

// Type is a value shape: a kind plus nullability.
type Type struct {
	Kind     value.Kind
	Nullable bool
}

func (t Type) String() string {
	if t.Nullable {
		return t.Kind.String() + "?"
	}
	return t.Kind.String()
}

// Join says how a group part combines with its siblings.
type Join uint8

const (
	JoinAnd Join = iota
	JoinOr
)

func (j Join) String() string {
	if j == JoinOr {
		return "or"
	}
	return "and"
}

// Part is one property of a group field.
type Part struct {
	Property string
	Kind     value.Kind
	Join     Join
	Order    int

	Nullable    bool
	EmptyToNull bool
	Allowed     operator.Op
	Default     operator.Op
}

// FieldDescriptor is the registered metadata of one filterable field.
//
// A simple field maps to one Property. A group field has no Property and
// two or more Parts; a filter on it applies the same operator to every part.
type FieldDescriptor struct {
	Name     string
	Property string

	// Declared is the shape exposed to clients.
	Declared Type

	// Kind is the underlying kind with nullability stripped.
	Kind value.Kind

	Allowed     operator.Op
	Default     operator.Op
	NullAllowed bool
	EmptyToNull bool

	Parts    []Part
	Position int

	// Enum is set for enum and flags kinds.
	Enum *value.EnumDef
}

// IsGroup reports whether f spans several properties.
func (f *FieldDescriptor) IsGroup() bool { return len(f.Parts) > 0 }

// Properties returns the underlying property names in part order.
func (f *FieldDescriptor) Properties() []string {
	if !f.IsGroup() {
		return []string{f.Property}
	}
	out := make([]string, len(f.Parts))
	for i, p := range f.Parts {
		out[i] = p.Property
	}
	return out
}

// SortDescriptor is the registered metadata of one sortable field.
type SortDescriptor struct {
	Name string

	// Properties expand in order into sort keys.
	Properties []string

	Allowed  operator.Direction
	Default  operator.Direction
	Position int
}
