package value

import "slices"

// Record is an entity held in memory as property name to value.
// Properties are matched exactly (case-sensitive).
type Record map[string]Value

// Value returns the value of property, or Null when the record lacks it.
func (r Record) Value(property string) Value {
	if v, ok := r[property]; ok && v != nil {
		return v
	}
	return Null{}
}

// Properties returns the record's property names in sorted order.
func (r Record) Properties() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Plain converts every property to its JSON-friendly form (see Plain).
func (r Record) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = Plain(v)
	}
	return out
}
