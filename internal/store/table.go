package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/querysql"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/value"
)

// ListQuery is a compiled list request against one table.
type ListQuery struct {
	Filter queryir.Predicate
	Order  queryir.Ordering
	Limit  int // 0 = all rows
	Offset int
}

// Page is one page of a list result. Total counts every matching row,
// ignoring Limit and Offset.
type Page struct {
	Records []value.Record
	Total   int
}

// Table binds an entity registry to a stored table whose columns are named
// after the registry's properties.
type Table struct {
	store *Store
	sqlc  *querysql.SQLCompiler
}

// Table returns a handle on the named table. key is the property used as
// the final ordering tiebreaker.
func (s *Store) Table(name, key string, reg *schema.Registry) *Table {
	t := querysql.TableFor(name, key, reg.PropertyKinds())
	return &Table{store: s, sqlc: querysql.NewSQLCompiler(s.dialect, t)}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.sqlc.Table.Name
}

// Insert writes records in one transaction. A null uuid property is
// assigned a fresh time-ordered (v7) UUID; records are not modified.
func (t *Table) Insert(ctx context.Context, records ...value.Record) error {
	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.Name(), err)
	}
	defer tx.Rollback()

	for _, r := range records {
		r, err = t.withGeneratedIDs(r)
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.Name(), err)
		}
		query, args := t.sqlc.Insert(r)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", t.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert %s: %w", t.Name(), err)
	}
	return nil
}

func (t *Table) withGeneratedIDs(r value.Record) (value.Record, error) {
	out := r
	cloned := false
	for prop, col := range t.sqlc.Table.Columns {
		if col.Kind != value.KindUUID || !value.IsNull(r.Value(prop)) {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		if !cloned {
			out, cloned = r.Clone(), true
		}
		out[prop] = value.UUID(id)
	}
	return out, nil
}

// List returns the page of rows q selects and the total number of matches.
// Rows come back in q.Order, ties broken by the key property.
func (t *Table) List(ctx context.Context, q ListQuery) (Page, error) {
	total, err := t.Count(ctx, q.Filter)
	if err != nil {
		return Page{}, err
	}

	query, args, err := t.sqlc.Select(querysql.Select{
		Filter: q.Filter,
		Order:  q.Order,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", t.Name(), err)
	}

	rows, err := t.store.Query(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", t.Name(), err)
	}
	defer rows.Close()

	props := t.sqlc.Properties()
	records := []value.Record{}
	for rows.Next() {
		raw := make([]any, len(props))
		dest := make([]any, len(props))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Page{}, fmt.Errorf("scan %s: %w", t.Name(), err)
		}

		rec := make(value.Record, len(props))
		for i, p := range props {
			v, err := value.FromNative(t.sqlc.Table.Columns[p].Kind, raw[i])
			if err != nil {
				return Page{}, fmt.Errorf("scan %s.%s: %w", t.Name(), p, err)
			}
			rec[p] = v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate %s: %w", t.Name(), err)
	}

	return Page{Records: records, Total: total}, nil
}

// Count returns the number of rows p matches.
func (t *Table) Count(ctx context.Context, p queryir.Predicate) (int, error) {
	query, args, err := t.sqlc.Count(p)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name(), err)
	}
	var n int
	if err := t.store.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name(), err)
	}
	return n, nil
}
