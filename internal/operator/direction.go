package operator

import (
	"fmt"
	"strings"
)

// Direction is a bitset of sort directions.
type Direction uint8

const (
	Ascending Direction = 1 << iota
	Descending

	// BothDirections is the usual allowed set of a sort field.
	BothDirections = Ascending | Descending
)

// Contains reports whether d, read as an allowed set, permits other.
func (d Direction) Contains(other Direction) bool { return other != 0 && d&other == other }

// Single reports whether d is exactly one direction.
func (d Direction) Single() bool { return d == Ascending || d == Descending }

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	case BothDirections:
		return "Ascending|Descending"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection reads "asc", "desc", "both" or the String form,
// case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	case "both", "ascending|descending":
		return BothDirections, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q", s)
}
