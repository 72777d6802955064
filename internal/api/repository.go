package api

import (
	"context"

	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/store"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go Repository

// Repository runs compiled list queries. *store.Table implements it.
type Repository interface {
	List(ctx context.Context, q store.ListQuery) (store.Page, error)
}

// Resource is an entity served at /api/{Name}.
type Resource struct {
	Name     string
	Registry *schema.Registry
	Repo     Repository
}
