package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

// AdminSeed carries the initial administrator account settings. When
// Password is empty a one-time password is generated and discarded, leaving
// the account locked until a digest is set explicitly.
type AdminSeed struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Initializer idempotently seeds the wildcard permission, the admin role
// holding it, and the admin user holding that role. All three steps share
// one change context: one transaction, one commit, one notification round.
type Initializer struct {
	manager   ports.UserDataManager
	passwords ports.PasswordService
	seed      AdminSeed
	log       zerolog.Logger
}

func NewInitializer(manager ports.UserDataManager, passwords ports.PasswordService, seed AdminSeed, log zerolog.Logger) *Initializer {
	if seed.Username == "" {
		seed.Username = domain.AdminUsername
	}
	return &Initializer{manager: manager, passwords: passwords, seed: seed, log: log}
}

// EnsureAdmin runs the bootstrap sequence. Each step only creates what is
// missing, so re-running at every startup is safe.
func (i *Initializer) EnsureAdmin(ctx context.Context) error {
	cc := i.manager.NewContext()
	if err := cc.Begin(ctx); err != nil {
		return err
	}

	if err := i.ensure(cc); err != nil {
		if rbErr := cc.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
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

func (i *Initializer) ensure(cc ports.ChangeContext) error {
	ctx := cc.Context()

	perm, err := i.manager.GetPermission(ctx, domain.Wildcard)
	if errors.Is(err, domain.ErrNotFound) {
		i.log.Info().Msg("creating wildcard permission")
		perm, err = i.manager.CreatePermission(ctx, &domain.Permission{Name: domain.Wildcard}, cc)
	}
	if err != nil {
		return err
	}

	role, err := i.manager.GetRole(ctx, domain.AdminRole)
	if errors.Is(err, domain.ErrNotFound) {
		i.log.Info().Msg("creating admin role")
		role = &domain.Role{Name: domain.AdminRole}
		role.AddPermission(perm.Name)
		role, err = i.manager.CreateRole(ctx, role, cc)
	}
	if err != nil {
		return err
	}

	_, err = i.manager.GetUser(ctx, i.seed.Username)
	if errors.Is(err, domain.ErrNotFound) {
		i.log.Info().Str("username", i.seed.Username).Msg("creating admin user")
		user := &domain.User{
			Username:  i.seed.Username,
			FirstName: i.seed.FirstName,
			LastName:  i.seed.LastName,
			Email:     i.seed.Email,
		}
		if i.seed.Password != "" {
			digest, dErr := i.passwords.DigestPassword(i.seed.Password)
			if dErr != nil {
				return dErr
			}
			user.PasswordDigest = digest
		}
		user.AddRole(role.Name)
		_, err = i.manager.CreateUser(ctx, user, cc)
	}
	return err
}
