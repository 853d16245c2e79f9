package ports

import (
	"context"

	"github.com/commonweb/user-manager/internal/core/domain"
)

// ChangeContext binds a sequence of repository mutations into one atomic
// unit and collects the distinct entities changed so a single notification
// round can be emitted after commit.
//
// Lifecycle: Begin is idempotent while the transaction is open and fails
// once the context is closed. Commit and Rollback each take effect exactly
// once; repeating the one that closed the context is a no-op.
// SendNotifications must only be called after a successful Commit.
//
// A context is not safe for concurrent begin/commit/rollback from multiple
// goroutines; use one per logical request.
type ChangeContext interface {
	Begin(ctx context.Context) error
	// Context returns the transaction-bound context for repository calls.
	Context() context.Context
	// Record adds the entity to the per-kind change set. Recording the same
	// entity twice is an idempotent union; recording on a closed context
	// fails.
	Record(kind domain.Kind, name string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	SendNotifications()
	// Shared reports whether the context lifecycle is owned by the caller
	// that created it rather than by the data manager.
	Shared() bool
}

// UserDataManager is the single write path for users, roles, and
// permissions. Every mutating operation takes an optional change context:
// nil means the manager owns the full begin/commit/rollback/notify
// lifecycle; a context from NewContext leaves commit, rollback, and
// notification to the caller.
type UserDataManager interface {
	// NewContext returns a caller-owned change context for composing
	// multiple operations into one transaction and notification round.
	NewContext() ChangeContext

	CreateUser(ctx context.Context, user *domain.User, cc ChangeContext) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User, cc ChangeContext) (*domain.User, error)
	DeleteUser(ctx context.Context, username string, cc ChangeContext) error
	GetUser(ctx context.Context, username string) (*domain.User, error)
	GetUsers(ctx context.Context) ([]*domain.User, error)

	CreateRole(ctx context.Context, role *domain.Role, cc ChangeContext) (*domain.Role, error)
	UpdateRole(ctx context.Context, role *domain.Role, cc ChangeContext) (*domain.Role, error)
	DeleteRole(ctx context.Context, name string, cc ChangeContext) error
	GetRole(ctx context.Context, name string) (*domain.Role, error)
	GetRoles(ctx context.Context) ([]*domain.Role, error)

	CreatePermission(ctx context.Context, perm *domain.Permission, cc ChangeContext) (*domain.Permission, error)
	UpdatePermission(ctx context.Context, perm *domain.Permission, cc ChangeContext) (*domain.Permission, error)
	DeletePermission(ctx context.Context, name string, cc ChangeContext) error
	GetPermission(ctx context.Context, name string) (*domain.Permission, error)
	GetPermissions(ctx context.Context) ([]*domain.Permission, error)

	// CreateCRUDPermissions creates the four <namespace>:<name>:<verb>
	// permissions in one transaction, keyed by verb.
	CreateCRUDPermissions(ctx context.Context, namespace, name string, cc ChangeContext) (map[string]*domain.Permission, error)
}

// AuthService authenticates users and mints access tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
