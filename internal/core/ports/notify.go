package ports

import (
	"context"

	"github.com/commonweb/user-manager/internal/core/domain"
)

// Observer receives post-commit change notifications: one call per entity
// kind per transaction, regardless of how many entities of that kind
// changed. Observers are invoked synchronously after the commit succeeds.
type Observer interface {
	DataChanged(kind domain.Kind)
}

// ListingCache caches the full entity listings and drops them when notified
// of a change, reloading lazily from the repository on the next read.
type ListingCache interface {
	Observer

	Users(ctx context.Context) ([]*domain.User, error)
	Roles(ctx context.Context) ([]*domain.Role, error)
	Permissions(ctx context.Context) ([]*domain.Permission, error)
	Invalidate(kind domain.Kind)
}
