package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor.
type Dialect uint8

const (
	// SQLite uses '?' placeholders and instr() substring tests.
	SQLite Dialect = iota
	// Postgres uses '$n' placeholders, strpos() substring tests and explicit
	// NULLS FIRST/LAST so that null ordering matches SQLite.
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// ParseDialect accepts a dialect name or a database/sql driver name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unknown SQL dialect %q", name)
	}
}

// placeholder renders the n-th (1-based) parameter marker.
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// substring renders a test for needle occurring in hay, as an expression
// that is non-zero when found.
func (d Dialect) substring(hay, needle string) string {
	if d == Postgres {
		return fmt.Sprintf("strpos(%s, %s)", hay, needle)
	}
	return fmt.Sprintf("instr(%s, %s)", hay, needle)
}

// lower folds a bound operand the way the dialect's LOWER() folds column
// text. SQLite's built-in LOWER() only folds ASCII letters.
func (d Dialect) lower(s string) string {
	if d == Postgres {
		return strings.ToLower(s)
	}
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// binaryCollation forces ordinal string ordering.
func (d Dialect) binaryCollation() string {
	if d == Postgres {
		return `COLLATE "C"`
	}
	return "COLLATE BINARY"
}

// nullOrder renders the null placement for a key. SQLite already sorts
// nulls first ascending and last descending.
func (d Dialect) nullOrder(desc bool) string {
	if d != Postgres {
		return ""
	}
	if desc {
		return " NULLS LAST"
	}
	return " NULLS FIRST"
}

// QuoteIdent quotes a table or column name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
