package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/metrics"
)

const listingTTL = time.Hour

// ListingCache is the Redis-backed listing cache, used instead of the
// in-memory one when several instances share a database: any instance's
// invalidation drops the key for all of them. Listings are stored as one
// JSON blob per kind under listing:<kind>, with a TTL as a safety net for
// missed invalidations.
type ListingCache struct {
	client *redis.Client
	repo   ports.Repository
	log    zerolog.Logger
}

func NewListingCache(client *redis.Client, repo ports.Repository, log zerolog.Logger) *ListingCache {
	return &ListingCache{client: client, repo: repo, log: log}
}

// DataChanged implements ports.Observer.
func (c *ListingCache) DataChanged(kind domain.Kind) {
	c.Invalidate(kind)
}

// Invalidate drops the cached listing for kind. Invalidation is best-effort:
// a failed delete is logged and the TTL bounds the staleness window.
func (c *ListingCache) Invalidate(kind domain.Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := c.client.Del(ctx, listingKey(kind)).Err(); err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("listing cache invalidation failed")
	}
}

// Users returns the cached user listing, reloading from the repository on a
// miss.
func (c *ListingCache) Users(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := c.fetch(ctx, domain.KindUser, &users, func() (interface{}, error) {
		loaded, err := c.repo.GetUsers(ctx)
		if err != nil {
			return nil, err
		}
		users = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Roles returns the cached role listing.
func (c *ListingCache) Roles(ctx context.Context) ([]*domain.Role, error) {
	var roles []*domain.Role
	err := c.fetch(ctx, domain.KindRole, &roles, func() (interface{}, error) {
		loaded, err := c.repo.GetRoles(ctx)
		if err != nil {
			return nil, err
		}
		roles = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Permissions returns the cached permission listing.
func (c *ListingCache) Permissions(ctx context.Context) ([]*domain.Permission, error) {
	var perms []*domain.Permission
	err := c.fetch(ctx, domain.KindPermission, &perms, func() (interface{}, error) {
		loaded, err := c.repo.GetPermissions(ctx)
		if err != nil {
			return nil, err
		}
		perms = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// fetch reads the listing for kind into dst, falling back to load on a cache
// miss and writing the result back with the listing TTL. A cache read or
// write failure degrades to a repository load rather than failing the
// request.
func (c *ListingCache) fetch(ctx context.Context, kind domain.Kind, dst interface{}, load func() (interface{}, error)) error {
	key := listingKey(kind)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, dst); err == nil {
			metrics.ListingCacheTotal.WithLabelValues(string(kind), "hit").Inc()
			return nil
		}
		c.log.Warn().Str("kind", string(kind)).Msg("corrupt cached listing; reloading")
	case err != redis.Nil:
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("listing cache read failed")
	}
	metrics.ListingCacheTotal.WithLabelValues(string(kind), "miss").Inc()

	loaded, err := load()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(loaded)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, encoded, listingTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("listing cache write failed")
	}
	return nil
}

func listingKey(kind domain.Kind) string {
	return fmt.Sprintf("listing:%s", kind)
}
