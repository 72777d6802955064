package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/value"
)

// Column maps an entity property to a table column.
type Column struct {
	Name string
	Kind value.Kind
}

// Table describes where an entity is stored.
type Table struct {
	Name string
	// Key is the property whose column breaks ordering ties.
	Key string
	// Columns maps property names to columns.
	Columns map[string]Column
}

// Select is a list query over one table.
type Select struct {
	Filter queryir.Predicate
	Order  queryir.Ordering
	Limit  int // 0 = no limit
	Offset int
}

// SQLCompiler compiles the predicate and ordering IR to parameterized SQL.
//
// CRITICAL: Every SELECT includes ORDER BY ending in the key column, so
// pagination is deterministic.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	Dialect Dialect
	Table   Table
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(d Dialect, t Table) *SQLCompiler {
	return &SQLCompiler{Dialect: d, Table: t}
}

// params collects bound values and renders placeholders.
type params struct {
	dialect Dialect
	args    []any
}

func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return p.dialect.placeholder(len(p.args))
}

// Where compiles p to a boolean SQL expression and its parameters.
func (c *SQLCompiler) Where(p queryir.Predicate) (string, []any, error) {
	ps := &params{dialect: c.Dialect}
	sql, err := c.compilePredicate(ps, p)
	if err != nil {
		return "", nil, err
	}
	return sql, ps.args, nil
}

// OrderBy compiles o to an ORDER BY list (without the keywords). The key
// column is appended as the final tiebreaker unless o already orders by it.
func (c *SQLCompiler) OrderBy(o queryir.Ordering) (string, error) {
	key, ok := c.Table.Columns[c.Table.Key]
	if !ok {
		return "", fmt.Errorf("table %s: key property %q has no column", c.Table.Name, c.Table.Key)
	}

	var parts []string
	keyed := false
	for _, k := range o.Keys {
		col, err := c.column(k.Field)
		if err != nil {
			return "", err
		}
		parts = append(parts, c.orderTerm(col, k.Descending))
		if k.Field == c.Table.Key {
			keyed = true
		}
	}
	if !keyed {
		parts = append(parts, c.orderTerm(key, false))
	}
	return strings.Join(parts, ", "), nil
}

func (c *SQLCompiler) orderTerm(col Column, desc bool) string {
	term := QuoteIdent(col.Name)
	if col.Kind == value.KindString {
		term += " " + c.Dialect.binaryCollation()
	}
	if desc {
		term += " DESC"
	} else {
		term += " ASC"
	}
	return term + c.Dialect.nullOrder(desc)
}

// Select compiles a full list query selecting every mapped column.
// Columns are listed in property-name order; Columns returns that order.
func (c *SQLCompiler) Select(q Select) (string, []any, error) {
	ps := &params{dialect: c.Dialect}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(c.selectList())
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(c.Table.Name))

	if err := c.writeWhere(&b, ps, q.Filter); err != nil {
		return "", nil, err
	}

	order, err := c.OrderBy(q.Order)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(ps.bind(int64(q.Limit)))
		if q.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(ps.bind(int64(q.Offset)))
		}
	}
	return b.String(), ps.args, nil
}

// Count compiles a query counting the rows p matches.
func (c *SQLCompiler) Count(p queryir.Predicate) (string, []any, error) {
	ps := &params{dialect: c.Dialect}

	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(QuoteIdent(c.Table.Name))
	if err := c.writeWhere(&b, ps, p); err != nil {
		return "", nil, err
	}
	return b.String(), ps.args, nil
}

func (c *SQLCompiler) writeWhere(b *strings.Builder, ps *params, p queryir.Predicate) error {
	if p == nil {
		return nil
	}
	if _, ok := p.(queryir.True); ok {
		return nil
	}
	sql, err := c.compilePredicate(ps, p)
	if err != nil {
		return fmt.Errorf("compile filter: %w", err)
	}
	b.WriteString(" WHERE ")
	b.WriteString(sql)
	return nil
}

// Properties returns the mapped properties in the order Select lists
// their columns.
func (c *SQLCompiler) Properties() []string {
	return sortedProperties(c.Table.Columns)
}

func (c *SQLCompiler) selectList() string {
	props := c.Properties()
	cols := make([]string, len(props))
	for i, p := range props {
		cols[i] = QuoteIdent(c.Table.Columns[p].Name)
	}
	return strings.Join(cols, ", ")
}

func (c *SQLCompiler) column(property string) (Column, error) {
	col, ok := c.Table.Columns[property]
	if !ok {
		return Column{}, fmt.Errorf("table %s: property %q has no column", c.Table.Name, property)
	}
	return col, nil
}

// compilePredicate compiles one predicate node.
// CRITICAL: Values NEVER interpolated - always bound.
func (c *SQLCompiler) compilePredicate(ps *params, p queryir.Predicate) (string, error) {
	switch n := p.(type) {
	case nil, queryir.True:
		return "1 = 1", nil

	case queryir.And:
		if len(n.Predicates) == 0 {
			return "1 = 1", nil
		}
		return c.compileJunction(ps, n.Predicates, " AND ")

	case queryir.Or:
		if len(n.Predicates) == 0 {
			return "1 = 0", nil
		}
		return c.compileJunction(ps, n.Predicates, " OR ")

	case queryir.Null:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		return QuoteIdent(col.Name) + " IS NULL", nil

	case queryir.NotNull:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		return QuoteIdent(col.Name) + " IS NOT NULL", nil

	case queryir.Compare:
		return c.compileCompare(ps, n)

	case queryir.Contains:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		hay, needle := QuoteIdent(col.Name), n.Value
		if n.Fold != queryir.FoldNone {
			hay = "LOWER(" + hay + ")"
			needle = c.Dialect.lower(needle)
		}
		if n.Negated {
			return orNull(col, c.Dialect.substring(hay, ps.bind(needle))+" = 0"), nil
		}
		return c.Dialect.substring(hay, ps.bind(needle)) + " > 0", nil

	case queryir.BitsAll:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		mask := int64(n.Mask)
		return fmt.Sprintf("(%s & %s) = %s", QuoteIdent(col.Name), ps.bind(mask), ps.bind(mask)), nil

	case queryir.BitsAny:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s & %s) <> 0", QuoteIdent(col.Name), ps.bind(int64(n.Mask))), nil

	case queryir.Range:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		if value.IsNull(n.Lo) || value.IsNull(n.Hi) {
			return "", fmt.Errorf("range on %s: null bound", n.Field)
		}
		bounds := ps.bind(value.Native(n.Lo)) + " AND " + ps.bind(value.Native(n.Hi))
		if n.Negated {
			return orNull(col, QuoteIdent(col.Name)+" NOT BETWEEN "+bounds), nil
		}
		return QuoteIdent(col.Name) + " BETWEEN " + bounds, nil

	case queryir.In:
		col, err := c.column(n.Field)
		if err != nil {
			return "", err
		}
		if len(n.Values) == 0 {
			if n.Negated {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		marks := make([]string, len(n.Values))
		for i, v := range n.Values {
			marks[i] = ps.bind(value.Native(v))
		}
		list := " (" + strings.Join(marks, ", ") + ")"
		if n.Negated {
			return orNull(col, QuoteIdent(col.Name)+" NOT IN"+list), nil
		}
		return QuoteIdent(col.Name) + " IN" + list, nil

	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileJunction(ps *params, preds []queryir.Predicate, sep string) (string, error) {
	parts := make([]string, len(preds))
	for i, p := range preds {
		sql, err := c.compilePredicate(ps, p)
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var sqlCompareOps = map[queryir.CompareOp]string{
	queryir.OpEq: "=",
	queryir.OpNe: "<>",
	queryir.OpGt: ">",
	queryir.OpGe: ">=",
	queryir.OpLt: "<",
	queryir.OpLe: "<=",
}

// orNull widens a negated test to rows where col is null. SQL leaves
// NOT IN, NOT BETWEEN and <> unknown on null, but a negated test is the
// complement of its positive form.
func orNull(col Column, test string) string {
	return "(" + test + " OR " + QuoteIdent(col.Name) + " IS NULL)"
}

// compileCompare compiles a Compare node. A null field fails every
// comparison except not equal.
func (c *SQLCompiler) compileCompare(ps *params, n queryir.Compare) (string, error) {
	col, err := c.column(n.Field)
	if err != nil {
		return "", err
	}
	op, ok := sqlCompareOps[n.Op]
	if !ok {
		return "", fmt.Errorf("compare on %s: unknown operator %d", n.Field, n.Op)
	}
	if value.IsNull(n.Value) {
		return "", fmt.Errorf("compare on %s: null operand", n.Field)
	}

	lhs := QuoteIdent(col.Name)
	arg := value.Native(n.Value)
	if s, isString := n.Value.(value.String); isString && n.Fold != queryir.FoldNone {
		lhs = "LOWER(" + lhs + ")"
		arg = c.Dialect.lower(string(s))
	}
	test := lhs + " " + op + " " + ps.bind(arg)
	if n.Op == queryir.OpNe {
		return orNull(col, test), nil
	}
	return test, nil
}

// Insert compiles an INSERT of r covering every mapped column. Properties
// missing from r insert NULL.
func (c *SQLCompiler) Insert(r value.Record) (string, []any) {
	ps := &params{dialect: c.Dialect}
	props := c.Properties()
	cols := make([]string, len(props))
	marks := make([]string, len(props))
	for i, p := range props {
		cols[i] = QuoteIdent(c.Table.Columns[p].Name)
		marks[i] = ps.bind(value.Native(r.Value(p)))
	}
	sql := "INSERT INTO " + QuoteIdent(c.Table.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	return sql, ps.args
}
