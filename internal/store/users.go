package store

import (
	"context"

	"github.com/roach88/filterql/internal/users"
)

// Users returns the users table.
func (s *Store) Users() *Table {
	return s.Table(users.Resource, users.PropId, users.Schema())
}

// SeedUsers inserts the sample users into an empty users table. A table
// that already holds rows is left alone.
func (s *Store) SeedUsers(ctx context.Context) error {
	t := s.Users()
	n, err := t.Count(ctx, nil)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return t.Insert(ctx, users.Records(users.Seed())...)
}
