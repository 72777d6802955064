package querysql

import (
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/users"
	"github.com/roach88/filterql/internal/value"
)

func usersTable() Table {
	return TableFor(users.Resource, users.PropId, users.Schema().PropertyKinds())
}

func TestWhere(t *testing.T) {
	c := NewSQLCompiler(SQLite, usersTable())

	tests := []struct {
		name string
		pred queryir.Predicate
		sql  string
		args []any
	}{
		{"true", queryir.True{}, "1 = 1", nil},
		{"empty or", queryir.Or{}, "1 = 0", nil},
		{"null", queryir.Null{Field: "Age"}, `"Age" IS NULL`, nil},
		{"not null", queryir.NotNull{Field: "Age"}, `"Age" IS NOT NULL`, nil},
		{
			"compare int",
			queryir.Compare{Field: "Id", Op: queryir.OpEq, Value: value.Int(5)},
			`"Id" = ?`, []any{int64(5)},
		},
		{
			"compare folded",
			queryir.Compare{Field: "Username", Op: queryir.OpNe, Value: value.String("Admin"), Fold: queryir.FoldInvariant},
			`(LOWER("Username") <> ? OR "Username" IS NULL)`, []any{"admin"},
		},
		{
			"contains",
			queryir.Contains{Field: "Email", Value: "Example", Fold: queryir.FoldCulture},
			`instr(LOWER("Email"), ?) > 0`, []any{"example"},
		},
		{
			"not contains",
			queryir.Contains{Field: "Email", Value: "x", Negated: true},
			`(instr("Email", ?) = 0 OR "Email" IS NULL)`, []any{"x"},
		},
		{
			"bits all",
			queryir.BitsAll{Field: "Permissions", Mask: 3},
			`("Permissions" & ?) = ?`, []any{int64(3), int64(3)},
		},
		{
			"bits any",
			queryir.BitsAny{Field: "Permissions", Mask: 5},
			`("Permissions" & ?) <> 0`, []any{int64(5)},
		},
		{
			"between",
			queryir.Range{Field: "Age", Lo: value.Int(30), Hi: value.Int(50)},
			`"Age" BETWEEN ? AND ?`, []any{int64(30), int64(50)},
		},
		{
			"not between",
			queryir.Range{Field: "Age", Lo: value.Int(30), Hi: value.Int(50), Negated: true},
			`("Age" NOT BETWEEN ? AND ? OR "Age" IS NULL)`, []any{int64(30), int64(50)},
		},
		{
			"in",
			queryir.In{Field: "Status", Values: []value.Value{value.Enum(1), value.Enum(2)}},
			`"Status" IN (?, ?)`, []any{int64(1), int64(2)},
		},
		{
			"not in",
			queryir.In{Field: "Id", Values: []value.Value{value.Int(1)}, Negated: true},
			`("Id" NOT IN (?) OR "Id" IS NULL)`, []any{int64(1)},
		},
		{"empty in", queryir.In{Field: "Id"}, "1 = 0", nil},
		{"empty not in", queryir.In{Field: "Id", Negated: true}, "1 = 1", nil},
		{
			"not equal",
			queryir.Compare{Field: "Age", Op: queryir.OpNe, Value: value.Int(36)},
			`("Age" <> ? OR "Age" IS NULL)`, []any{int64(36)},
		},
		{
			"folded non-ascii stays as sqlite folds it",
			queryir.Compare{Field: "Username", Op: queryir.OpEq, Value: value.String("ÉCOLE"), Fold: queryir.FoldInvariant},
			`LOWER("Username") = ?`, []any{"École"},
		},
		{
			"nested",
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Compare{Field: "Active", Op: queryir.OpEq, Value: value.Bool(true)},
				queryir.Or{Predicates: []queryir.Predicate{
					queryir.Compare{Field: "Age", Op: queryir.OpGt, Value: value.Int(40)},
					queryir.Null{Field: "Age"},
				}},
			}},
			`("Active" = ? AND ("Age" > ? OR "Age" IS NULL))`, []any{true, int64(40)},
		},
		{
			"datetime as storage text",
			queryir.Compare{Field: "Created", Op: queryir.OpGe, Value: value.NewDateTime(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))},
			`"Created" >= ?`, []any{"2024-03-15T00:00:00.000000000Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := c.Where(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestWhere_Postgres(t *testing.T) {
	c := NewSQLCompiler(Postgres, usersTable())

	sql, args, err := c.Where(queryir.And{Predicates: []queryir.Predicate{
		queryir.Contains{Field: "Email", Value: "org"},
		queryir.Range{Field: "Id", Lo: value.Int(2), Hi: value.Int(4)},
	}})
	require.NoError(t, err)
	assert.Equal(t, `(strpos("Email", $1) > 0 AND "Id" BETWEEN $2 AND $3)`, sql)
	assert.Equal(t, []any{"org", int64(2), int64(4)}, args)
}

func TestWhere_PostgresFoldsUnicode(t *testing.T) {
	c := NewSQLCompiler(Postgres, usersTable())

	sql, args, err := c.Where(queryir.Contains{Field: "Email", Value: "ÉCOLE", Fold: queryir.FoldInvariant, Negated: true})
	require.NoError(t, err)
	assert.Equal(t, `(strpos(LOWER("Email"), $1) = 0 OR "Email" IS NULL)`, sql)
	assert.Equal(t, []any{"école"}, args)
}

func TestWhere_Errors(t *testing.T) {
	c := NewSQLCompiler(SQLite, usersTable())

	tests := []struct {
		name string
		pred queryir.Predicate
	}{
		{"unknown column", queryir.Null{Field: "Missing"}},
		{"null compare", queryir.Compare{Field: "Age", Op: queryir.OpEq, Value: value.Null{}}},
		{"null bound", queryir.Range{Field: "Age", Lo: value.Null{}, Hi: value.Int(1)}},
		{"nested unknown", queryir.Or{Predicates: []queryir.Predicate{queryir.True{}, queryir.NotNull{Field: "Nope"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Where(tt.pred)
			assert.Error(t, err)
		})
	}
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		order   queryir.Ordering
		want    string
	}{
		{"empty orders by key", SQLite, queryir.Ordering{}, `"Id" ASC`},
		{
			"strings are binary collated",
			SQLite,
			queryir.Ordering{Keys: []queryir.SortKey{{Field: "Username"}}},
			`"Username" COLLATE BINARY ASC, "Id" ASC`,
		},
		{
			"key not repeated",
			SQLite,
			queryir.Ordering{Keys: []queryir.SortKey{{Field: "Id", Descending: true}}},
			`"Id" DESC`,
		},
		{
			"postgres null placement",
			Postgres,
			queryir.Ordering{Keys: []queryir.SortKey{{Field: "Age", Descending: true}, {Field: "Email"}}},
			`"Age" DESC NULLS LAST, "Email" COLLATE "C" ASC NULLS FIRST, "Id" ASC NULLS FIRST`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSQLCompiler(tt.dialect, usersTable()).OrderBy(tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderBy_Errors(t *testing.T) {
	c := NewSQLCompiler(SQLite, usersTable())
	_, err := c.OrderBy(queryir.Ordering{Keys: []queryir.SortKey{{Field: "Missing"}}})
	assert.Error(t, err)

	noKey := usersTable()
	noKey.Key = "Missing"
	_, err = NewSQLCompiler(SQLite, noKey).OrderBy(queryir.Ordering{})
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	c := NewSQLCompiler(Postgres, usersTable())

	sql, args, err := c.Count(queryir.True{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "users"`, sql)
	assert.Empty(t, args)

	sql, args, err = c.Count(queryir.Compare{Field: "Active", Op: queryir.OpEq, Value: value.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "Active" = $1`, sql)
	assert.Equal(t, []any{false}, args)
}

func TestSelect_ValuesNeverInterpolated(t *testing.T) {
	c := NewSQLCompiler(SQLite, usersTable())

	sql, args, err := c.Select(Select{
		Filter: queryir.Compare{Field: "Username", Op: queryir.OpEq, Value: value.String("x' OR 1=1 --")},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "OR 1=1")
	assert.Equal(t, []any{"x' OR 1=1 --"}, args)
	assert.Contains(t, sql, "ORDER BY")
}

func TestSelect_Golden(t *testing.T) {
	q := Select{
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Field: "Status", Op: queryir.OpEq, Value: value.Enum(1)},
			queryir.Or{Predicates: []queryir.Predicate{
				queryir.Compare{Field: "Age", Op: queryir.OpGt, Value: value.Int(40)},
				queryir.Null{Field: "Age"},
			}},
		}},
		Order: queryir.Ordering{Keys: []queryir.SortKey{
			{Field: "LastName"},
			{Field: "FirstName"},
			{Field: "Created", Descending: true},
		}},
		Limit:  10,
		Offset: 20,
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, d := range []Dialect{SQLite, Postgres} {
		t.Run(d.String(), func(t *testing.T) {
			sql, args, err := NewSQLCompiler(d, usersTable()).Select(q)
			require.NoError(t, err)
			g.Assert(t, "select_"+d.String(), []byte(fmt.Sprintf("%s\nargs: %v\n", sql, args)))
		})
	}
}

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3", " sqlite "} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, SQLite, d)
	}
	for _, name := range []string{"postgres", "postgresql", "pgx"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, Postgres, d)
	}
	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdent("users"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}

func TestInsert(t *testing.T) {
	table := Table{
		Name: "t",
		Key:  "Id",
		Columns: map[string]Column{
			"Id":   {Name: "id", Kind: value.KindInt},
			"Name": {Name: "name", Kind: value.KindString},
		},
	}

	sql, args := NewSQLCompiler(Postgres, table).Insert(value.Record{"Id": value.Int(7)})
	assert.Equal(t, `INSERT INTO "t" ("id", "name") VALUES ($1, $2)`, sql)
	assert.Equal(t, []any{int64(7), nil}, args)
}
