package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
)

const testJWTSecret = "test-signing-secret"

func newAuthFixture(t *testing.T) (*memRepo, *AuthService) {
	t.Helper()
	repo := newMemRepo()
	passwords := NewPasswords()

	digest, err := passwords.DigestPassword("secret")
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	repo.users["jdoe"] = &domain.User{
		Username:       "jdoe",
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jdoe@example.com",
		PasswordDigest: digest,
		Roles:          []string{"ops", "missing-role"},
	}
	ops := &domain.Role{Name: "ops"}
	ops.AddPermission("users:read")
	ops.AddPermission("roles:read")
	repo.roles["ops"] = ops

	return repo, NewAuthService(repo, passwords, testJWTSecret, time.Hour, zerolog.Nop())
}

func parseTestToken(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	return claims
}

func TestLoginIssuesTokenWithResolvedPermissions(t *testing.T) {
	_, svc := newAuthFixture(t)

	token, user, err := svc.Login(context.Background(), "jdoe", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "jdoe" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	claims := parseTestToken(t, token)
	if claims["username"] != "jdoe" {
		t.Fatalf("unexpected username claim %v", claims["username"])
	}
	perms, ok := claims["permissions"].([]interface{})
	if !ok {
		t.Fatalf("unexpected permissions claim %T", claims["permissions"])
	}
	want := map[string]bool{"users:read": true, "roles:read": true}
	if len(perms) != len(want) {
		t.Fatalf("expected %d permissions, got %v", len(want), perms)
	}
	for _, p := range perms {
		if !want[p.(string)] {
			t.Fatalf("unexpected permission %v", p)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "jdoe", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUserIndistinguishable(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "ghost", "secret")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginEmptyCredentials(t *testing.T) {
	_, svc := newAuthFixture(t)

	if _, _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUserWithoutDigestCannotAuthenticate(t *testing.T) {
	repo, svc := newAuthFixture(t)
	repo.users["locked"] = &domain.User{
		Username:  "locked",
		FirstName: "No",
		LastName:  "Password",
		Email:     "locked@example.com",
	}

	_, _, err := svc.Login(context.Background(), "locked", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = svc.Login(context.Background(), "locked", "anything")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
