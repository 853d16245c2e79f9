package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/metrics"
)

// DataManager is the single write path for users, roles, and permissions.
// It enforces existence preconditions, applies field-level merge on update,
// cascades deletes, and drives the change-context lifecycle: for operations
// called without a context it begins, commits (or rolls back) and sends
// notifications itself; with a caller-supplied context it only mutates and
// records, leaving finalization to the caller.
type DataManager struct {
	repo      ports.Repository
	txm       ports.TxManager
	notifier  *Notifier
	cache     ports.ListingCache
	passwords ports.PasswordService
	log       zerolog.Logger
}

func NewDataManager(
	repo ports.Repository,
	txm ports.TxManager,
	notifier *Notifier,
	cache ports.ListingCache,
	passwords ports.PasswordService,
	log zerolog.Logger,
) *DataManager {
	return &DataManager{
		repo:      repo,
		txm:       txm,
		notifier:  notifier,
		cache:     cache,
		passwords: passwords,
		log:       log,
	}
}

// NewContext returns a caller-owned change context for composing multiple
// operations into one transaction and one notification round.
func (m *DataManager) NewContext() ports.ChangeContext {
	return NewChangeContext(m.txm, m.notifier, true, m.log)
}

// run wraps fn in the change-context lifecycle. A nil cc is replaced with a
// manager-owned context; whether the manager finalizes is decided by the
// context's Shared flag, not by who allocated it. For a non-shared context
// any error after Begin triggers a rollback attempt, and a rollback failure
// is surfaced alongside the original error rather than swallowed. A shared
// context is begun (idempotent) but never finalized here.
func (m *DataManager) run(ctx context.Context, cc ports.ChangeContext, fn func(cc ports.ChangeContext) error) error {
	if cc == nil {
		cc = NewChangeContext(m.txm, m.notifier, false, m.log)
	}
	if err := cc.Begin(ctx); err != nil {
		return err
	}

	if err := fn(cc); err != nil {
		if !cc.Shared() {
			if rbErr := cc.Rollback(ctx); rbErr != nil {
				return errors.Join(err, rbErr)
			}
		}
		return err
	}

	if cc.Shared() {
		return nil
	}
	if err := cc.Commit(ctx); err != nil {
		if rbErr := cc.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	cc.SendNotifications()
	return nil
}

// --- Users ---------------------------------------------------------------

// CreateUser persists a new user. When the user carries no password digest,
// a one-time password is generated and digested before the save.
func (m *DataManager) CreateUser(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error) {
	if err := domain.ValidateUser(user); err != nil {
		return nil, err
	}

	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasUser(cc.Context(), user.Username)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %q: %w", user.Username, domain.ErrAlreadyExists)
		}

		if user.PasswordDigest == "" {
			digest, err := m.passwords.DigestPassword(m.passwords.GeneratePassword())
			if err != nil {
				return fmt.Errorf("digest generated password: %w", err)
			}
			user.PasswordDigest = digest
			m.log.Info().Str("username", user.Username).Msg("generated one-time password for new user")
		}

		if err := m.repo.SaveUser(cc.Context(), user); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindUser), "create").Inc()
		return cc.Record(domain.KindUser, user.Username)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("username", user.Username).Msg("user created")
	return user, nil
}

// UpdateUser merges the incoming user's mutable fields onto the stored
// entity (last write wins) and persists the result. The username is the
// immutable identity and selects the entity to update.
func (m *DataManager) UpdateUser(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error) {
	if err := domain.ValidateUser(user); err != nil {
		return nil, err
	}

	var stored *domain.User
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasUser(cc.Context(), user.Username)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %q: %w", user.Username, domain.ErrNotFound)
		}

		stored, err = m.repo.GetUser(cc.Context(), user.Username)
		if err != nil {
			return err
		}
		if stored != user {
			stored.UpdateFrom(user)
		}

		if err := m.repo.SaveUser(cc.Context(), stored); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindUser), "update").Inc()
		return cc.Record(domain.KindUser, stored.Username)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("username", stored.Username).Msg("user updated")
	return stored, nil
}

// DeleteUser removes the user by name.
func (m *DataManager) DeleteUser(ctx context.Context, username string, cc ports.ChangeContext) error {
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasUser(cc.Context(), username)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}

		if err := m.repo.DeleteUser(cc.Context(), username); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindUser), "delete").Inc()
		return cc.Record(domain.KindUser, username)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("username", username).Msg("user deleted")
	return nil
}

// GetUser returns the user by name, or domain.ErrNotFound.
func (m *DataManager) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return m.repo.GetUser(ctx, username)
}

// GetUsers returns all users ordered by last name then first name, served
// from the listing cache.
func (m *DataManager) GetUsers(ctx context.Context) ([]*domain.User, error) {
	return m.cache.Users(ctx)
}

// --- Roles ---------------------------------------------------------------

// CreateRole persists a new role.
func (m *DataManager) CreateRole(ctx context.Context, role *domain.Role, cc ports.ChangeContext) (*domain.Role, error) {
	if err := domain.ValidateRole(role); err != nil {
		return nil, err
	}

	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasRole(cc.Context(), role.Name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("role %q: %w", role.Name, domain.ErrAlreadyExists)
		}

		if err := m.repo.SaveRole(cc.Context(), role); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindRole), "create").Inc()
		return cc.Record(domain.KindRole, role.Name)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("role", role.Name).Msg("role created")
	return role, nil
}

// UpdateRole merges the incoming role's permission set onto the stored role.
func (m *DataManager) UpdateRole(ctx context.Context, role *domain.Role, cc ports.ChangeContext) (*domain.Role, error) {
	if err := domain.ValidateRole(role); err != nil {
		return nil, err
	}

	var stored *domain.Role
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasRole(cc.Context(), role.Name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("role %q: %w", role.Name, domain.ErrNotFound)
		}

		stored, err = m.repo.GetRole(cc.Context(), role.Name)
		if err != nil {
			return err
		}
		if stored != role {
			stored.UpdateFrom(role)
		}

		if err := m.repo.SaveRole(cc.Context(), stored); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindRole), "update").Inc()
		return cc.Record(domain.KindRole, stored.Name)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("role", stored.Name).Msg("role updated")
	return stored, nil
}

// DeleteRole removes the role by name, first stripping it from the role set
// of every user that holds it. The cascade and the delete share the same
// transaction: either both commit or neither does.
func (m *DataManager) DeleteRole(ctx context.Context, name string, cc ports.ChangeContext) error {
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasRole(cc.Context(), name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("role %q: %w", name, domain.ErrNotFound)
		}

		// Full scan; fine at admin scale. A findByRoleName repository
		// query is the path if user counts ever make this hurt.
		users, err := m.repo.GetUsers(cc.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			if !u.RemoveRole(name) {
				continue
			}
			if err := m.repo.SaveUser(cc.Context(), u); err != nil {
				return err
			}
			if err := cc.Record(domain.KindUser, u.Username); err != nil {
				return err
			}
		}

		if err := m.repo.DeleteRole(cc.Context(), name); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindRole), "delete").Inc()
		return cc.Record(domain.KindRole, name)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("role", name).Msg("role deleted")
	return nil
}

// GetRole returns the role by name, or domain.ErrNotFound.
func (m *DataManager) GetRole(ctx context.Context, name string) (*domain.Role, error) {
	return m.repo.GetRole(ctx, name)
}

// GetRoles returns all roles ordered by name, served from the listing cache.
func (m *DataManager) GetRoles(ctx context.Context) ([]*domain.Role, error) {
	return m.cache.Roles(ctx)
}

// --- Permissions ---------------------------------------------------------

// CreatePermission persists a new permission.
func (m *DataManager) CreatePermission(ctx context.Context, perm *domain.Permission, cc ports.ChangeContext) (*domain.Permission, error) {
	if err := domain.ValidatePermission(perm); err != nil {
		return nil, err
	}

	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasPermission(cc.Context(), perm.Name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("permission %q: %w", perm.Name, domain.ErrAlreadyExists)
		}

		if err := m.repo.SavePermission(cc.Context(), perm); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindPermission), "create").Inc()
		return cc.Record(domain.KindPermission, perm.Name)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("permission", perm.Name).Msg("permission created")
	return perm, nil
}

// UpdatePermission merges the incoming permission's implied set onto the
// stored permission.
func (m *DataManager) UpdatePermission(ctx context.Context, perm *domain.Permission, cc ports.ChangeContext) (*domain.Permission, error) {
	if err := domain.ValidatePermission(perm); err != nil {
		return nil, err
	}

	var stored *domain.Permission
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasPermission(cc.Context(), perm.Name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("permission %q: %w", perm.Name, domain.ErrNotFound)
		}

		stored, err = m.repo.GetPermission(cc.Context(), perm.Name)
		if err != nil {
			return err
		}
		if stored != perm {
			stored.UpdateFrom(perm)
		}

		if err := m.repo.SavePermission(cc.Context(), stored); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindPermission), "update").Inc()
		return cc.Record(domain.KindPermission, stored.Name)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("permission", stored.Name).Msg("permission updated")
	return stored, nil
}

// DeletePermission removes the permission by name, first stripping it from
// every role that holds it, inside the same transaction.
func (m *DataManager) DeletePermission(ctx context.Context, name string, cc ports.ChangeContext) error {
	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		exists, err := m.repo.HasPermission(cc.Context(), name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("permission %q: %w", name, domain.ErrNotFound)
		}

		roles, err := m.repo.GetRoles(cc.Context())
		if err != nil {
			return err
		}
		for _, r := range roles {
			if !r.RemovePermission(name) {
				continue
			}
			if err := m.repo.SaveRole(cc.Context(), r); err != nil {
				return err
			}
			if err := cc.Record(domain.KindRole, r.Name); err != nil {
				return err
			}
		}

		if err := m.repo.DeletePermission(cc.Context(), name); err != nil {
			return err
		}
		metrics.EntityWritesTotal.WithLabelValues(string(domain.KindPermission), "delete").Inc()
		return cc.Record(domain.KindPermission, name)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("permission", name).Msg("permission deleted")
	return nil
}

// GetPermission returns the permission by name, or domain.ErrNotFound.
func (m *DataManager) GetPermission(ctx context.Context, name string) (*domain.Permission, error) {
	return m.repo.GetPermission(ctx, name)
}

// GetPermissions returns all permissions ordered by name, served from the
// listing cache.
func (m *DataManager) GetPermissions(ctx context.Context) ([]*domain.Permission, error) {
	return m.cache.Permissions(ctx)
}

// CreateCRUDPermissions creates the four <namespace>:<name>:<verb>
// permissions in one transaction, keyed by verb.
func (m *DataManager) CreateCRUDPermissions(ctx context.Context, namespace, name string, cc ports.ChangeContext) (map[string]*domain.Permission, error) {
	verbs := []string{domain.VerbCreate, domain.VerbRead, domain.VerbUpdate, domain.VerbDelete}
	perms := make(map[string]*domain.Permission, len(verbs))

	err := m.run(ctx, cc, func(cc ports.ChangeContext) error {
		for _, verb := range verbs {
			perm := &domain.Permission{Name: domain.PermissionName(namespace, name, verb)}

			exists, err := m.repo.HasPermission(cc.Context(), perm.Name)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("permission %q: %w", perm.Name, domain.ErrAlreadyExists)
			}
			if err := m.repo.SavePermission(cc.Context(), perm); err != nil {
				return err
			}
			metrics.EntityWritesTotal.WithLabelValues(string(domain.KindPermission), "create").Inc()
			if err := cc.Record(domain.KindPermission, perm.Name); err != nil {
				return err
			}
			perms[verb] = perm
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("namespace", namespace).Str("name", name).Msg("crud permissions created")
	return perms, nil
}
