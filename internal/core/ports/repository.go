package ports

import (
	"context"

	"github.com/commonweb/user-manager/internal/core/domain"
)

// Repository is the storage collaborator for users, roles, and permissions.
// Mutating calls made inside a change context must receive the
// transaction-bound context returned by ChangeContext.Context, so the
// underlying store can associate them with the open transaction.
//
// Lookups return domain.ErrNotFound for missing entities; saves surface
// domain.ErrAlreadyExists when a storage-level uniqueness conflict races
// past the manager's existence pre-check.
type Repository interface {
	HasUser(ctx context.Context, username string) (bool, error)
	GetUser(ctx context.Context, username string) (*domain.User, error)
	// GetUsers returns all users ordered by last name, then first name.
	GetUsers(ctx context.Context) ([]*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, username string) error

	HasRole(ctx context.Context, name string) (bool, error)
	GetRole(ctx context.Context, name string) (*domain.Role, error)
	// GetRoles returns all roles ordered by name.
	GetRoles(ctx context.Context) ([]*domain.Role, error)
	SaveRole(ctx context.Context, role *domain.Role) error
	DeleteRole(ctx context.Context, name string) error

	HasPermission(ctx context.Context, name string) (bool, error)
	GetPermission(ctx context.Context, name string) (*domain.Permission, error)
	// GetPermissions returns all permissions ordered by name.
	GetPermissions(ctx context.Context) ([]*domain.Permission, error)
	SavePermission(ctx context.Context, perm *domain.Permission) error
	DeletePermission(ctx context.Context, name string) error
}
