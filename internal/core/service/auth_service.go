package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

// AuthService implements login. Tokens carry the username, the user's role
// names, and the permission names resolved through those roles, so the API
// layer can authorize requests without further lookups.
type AuthService struct {
	repo      ports.Repository
	passwords ports.PasswordService
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.Repository, passwords ports.PasswordService, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		passwords: passwords,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Login verifies the credentials and returns a signed token plus the user.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.passwords.VerifyPassword(user.PasswordDigest, password) {
		s.log.Warn().Str("username", username).Msg("failed login attempt")
		return "", nil, domain.ErrInvalidCredentials
	}

	perms, err := s.permissionNames(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user, perms)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// permissionNames resolves the user's roles to the set of permission names
// they grant. A role deleted between assignment and login is skipped.
func (s *AuthService) permissionNames(ctx context.Context, user *domain.User) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, roleName := range user.Roles {
		role, err := s.repo.GetRole(ctx, roleName)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, p := range role.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			names = append(names, p)
		}
	}
	return names, nil
}

func (s *AuthService) generateToken(user *domain.User, perms []string) (string, error) {
	claims := jwt.MapClaims{
		"username":    user.Username,
		"roles":       user.Roles,
		"permissions": perms,
		"exp":         time.Now().Add(s.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
