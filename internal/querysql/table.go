package querysql

import (
	"sort"

	"github.com/roach88/filterql/internal/value"
)

// TableFor maps every property in kinds to a column of the same name.
func TableFor(name, key string, kinds map[string]value.Kind) Table {
	cols := make(map[string]Column, len(kinds))
	for prop, kind := range kinds {
		cols[prop] = Column{Name: prop, Kind: kind}
	}
	return Table{Name: name, Key: key, Columns: cols}
}

func sortedProperties(cols map[string]Column) []string {
	props := make([]string, 0, len(cols))
	for p := range cols {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}
