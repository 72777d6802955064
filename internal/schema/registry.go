package schema

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/filterql/internal/value"
)

// Registry holds the filter and sort descriptors of one entity type.
// It is immutable once built and safe for concurrent reads.
type Registry struct {
	entity  string
	filters map[string]*FieldDescriptor
	sorts   map[string]*SortDescriptor

	filterList []*FieldDescriptor
	sortList   []*SortDescriptor
}

func newRegistry(entity string, filters []*FieldDescriptor, sorts []*SortDescriptor) *Registry {
	r := &Registry{
		entity:     entity,
		filters:    make(map[string]*FieldDescriptor, len(filters)),
		sorts:      make(map[string]*SortDescriptor, len(sorts)),
		filterList: filters,
		sortList:   sorts,
	}
	for _, f := range filters {
		r.filters[foldName(f.Name)] = f
	}
	for _, s := range sorts {
		r.sorts[foldName(s.Name)] = s
	}

	slices.SortStableFunc(r.filterList, func(a, b *FieldDescriptor) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), strings.Compare(a.Name, b.Name))
	})
	slices.SortStableFunc(r.sortList, func(a, b *SortDescriptor) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), strings.Compare(a.Name, b.Name))
	})
	return r
}

// Entity returns the entity type name.
func (r *Registry) Entity() string { return r.entity }

// Filter looks up a filter field by name, case-insensitively.
func (r *Registry) Filter(name string) (*FieldDescriptor, bool) {
	f, ok := r.filters[foldName(name)]
	return f, ok
}

// Sort looks up a sort field by name, case-insensitively.
func (r *Registry) Sort(name string) (*SortDescriptor, bool) {
	s, ok := r.sorts[foldName(name)]
	return s, ok
}

// Filters returns the filter descriptors ordered by (position, name).
func (r *Registry) Filters() []*FieldDescriptor {
	return slices.Clone(r.filterList)
}

// Sorts returns the sort descriptors ordered by (position, name).
func (r *Registry) Sorts() []*SortDescriptor {
	return slices.Clone(r.sortList)
}

// PropertyKinds maps every property referenced by a filter field to its
// kind. Executors use it to scan stored rows.
func (r *Registry) PropertyKinds() map[string]value.Kind {
	out := make(map[string]value.Kind)
	for _, f := range r.filterList {
		if !f.IsGroup() {
			out[f.Property] = f.Kind
			continue
		}
		for _, p := range f.Parts {
			out[p.Property] = p.Kind
		}
	}
	return out
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
