package value

import (
	"fmt"
	"strings"
)

// EnumMember is one named value of an enumeration.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumDef describes an enumeration or a flag set. Member names are matched
// case-sensitively.
type EnumDef struct {
	Name    string
	Members []EnumMember
	byName  map[string]int64
}

// NewEnum builds an enumeration definition. Duplicate member names are an error.
func NewEnum(name string, members ...EnumMember) (*EnumDef, error) {
	def := &EnumDef{
		Name:    name,
		Members: append([]EnumMember(nil), members...),
		byName:  make(map[string]int64, len(members)),
	}
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("enum %s: empty member name", name)
		}
		if _, dup := def.byName[m.Name]; dup {
			return nil, fmt.Errorf("enum %s: duplicate member %q", name, m.Name)
		}
		def.byName[m.Name] = m.Value
	}
	return def, nil
}

// MustEnum is like NewEnum but panics on error.
// Use only for static definitions known to be valid.
func MustEnum(name string, members ...EnumMember) *EnumDef {
	def, err := NewEnum(name, members...)
	if err != nil {
		panic(err)
	}
	return def
}

// Lookup returns the numeric value for a member name.
func (d *EnumDef) Lookup(name string) (int64, bool) {
	v, ok := d.byName[name]
	return v, ok
}

// Has reports whether n is the value of some member.
func (d *EnumDef) Has(n int64) bool {
	for _, m := range d.Members {
		if m.Value == n {
			return true
		}
	}
	return false
}

// NameOf returns the member name for n, if any.
func (d *EnumDef) NameOf(n int64) (string, bool) {
	for _, m := range d.Members {
		if m.Value == n {
			return m.Name, true
		}
	}
	return "", false
}

// Mask returns the union of all member values (flags only).
func (d *EnumDef) Mask() uint64 {
	var mask uint64
	for _, m := range d.Members {
		mask |= uint64(m.Value)
	}
	return mask
}
