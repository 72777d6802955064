package query

import (
	"github.com/roach88/filterql/internal/value"
)

// Fingerprint returns a stable hash of a validated query. Field names are
// normalized to their registered spelling, so "name~x" and "Name~x" share a
// fingerprint. Either context may be nil.
func Fingerprint(filter *FilterContext, sort *SortContext) (string, error) {
	doc := map[string]any{}

	if filter != nil {
		doc["entity"] = filter.registry.Entity()
		clauses := make([]any, 0, len(filter.requests))
		for _, r := range filter.requests {
			name := r.Field
			if fd, ok := filter.registry.Filter(r.Field); ok {
				name = fd.Name
			}
			clauses = append(clauses, map[string]any{
				"field":  name,
				"op":     r.Op.String(),
				"values": r.Values,
			})
		}
		doc["filter"] = clauses
	}

	if sort != nil {
		doc["entity"] = sort.registry.Entity()
		keys := make([]any, 0, len(sort.requests))
		for _, r := range sort.requests {
			name := r.Field
			if sd, ok := sort.registry.Sort(r.Field); ok {
				name = sd.Name
			}
			keys = append(keys, map[string]any{
				"field":     name,
				"direction": r.Direction.String(),
			})
		}
		doc["sort"] = keys
	}

	return value.Fingerprint(value.DomainQuery, doc)
}
