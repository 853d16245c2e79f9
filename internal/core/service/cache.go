package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/metrics"
)

// ListingCache is the in-memory listing cache. It registers with the
// Notifier as an observer: a change notification for a kind drops that
// kind's cached listing, and the next read lazily reloads it from the
// repository. All state is held on the instance; there are no globals.
type ListingCache struct {
	repo ports.Repository
	log  zerolog.Logger

	mu          sync.Mutex
	loaded      map[domain.Kind]bool
	users       []*domain.User
	roles       []*domain.Role
	permissions []*domain.Permission
}

func NewListingCache(repo ports.Repository, log zerolog.Logger) *ListingCache {
	return &ListingCache{
		repo:   repo,
		log:    log,
		loaded: make(map[domain.Kind]bool),
	}
}

// DataChanged implements ports.Observer.
func (c *ListingCache) DataChanged(kind domain.Kind) {
	c.Invalidate(kind)
}

// Invalidate drops the cached listing for kind.
func (c *ListingCache) Invalidate(kind domain.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded[kind] = false
	switch kind {
	case domain.KindUser:
		c.users = nil
	case domain.KindRole:
		c.roles = nil
	case domain.KindPermission:
		c.permissions = nil
	}
	c.log.Debug().Str("kind", string(kind)).Msg("listing cache invalidated")
}

// Users returns the cached user listing, reloading it from the repository
// if a change invalidated it.
func (c *ListingCache) Users(ctx context.Context) ([]*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded[domain.KindUser] {
		metrics.ListingCacheTotal.WithLabelValues(string(domain.KindUser), "hit").Inc()
		return c.users, nil
	}
	metrics.ListingCacheTotal.WithLabelValues(string(domain.KindUser), "miss").Inc()

	users, err := c.repo.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	c.users = users
	c.loaded[domain.KindUser] = true
	return users, nil
}

// Roles returns the cached role listing, reloading on demand.
func (c *ListingCache) Roles(ctx context.Context) ([]*domain.Role, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded[domain.KindRole] {
		metrics.ListingCacheTotal.WithLabelValues(string(domain.KindRole), "hit").Inc()
		return c.roles, nil
	}
	metrics.ListingCacheTotal.WithLabelValues(string(domain.KindRole), "miss").Inc()

	roles, err := c.repo.GetRoles(ctx)
	if err != nil {
		return nil, err
	}
	c.roles = roles
	c.loaded[domain.KindRole] = true
	return roles, nil
}

// Permissions returns the cached permission listing, reloading on demand.
func (c *ListingCache) Permissions(ctx context.Context) ([]*domain.Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded[domain.KindPermission] {
		metrics.ListingCacheTotal.WithLabelValues(string(domain.KindPermission), "hit").Inc()
		return c.permissions, nil
	}
	metrics.ListingCacheTotal.WithLabelValues(string(domain.KindPermission), "miss").Inc()

	perms, err := c.repo.GetPermissions(ctx)
	if err != nil {
		return nil, err
	}
	c.permissions = perms
	c.loaded[domain.KindPermission] = true
	return perms, nil
}
