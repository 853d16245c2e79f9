package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

// stubManager implements ports.UserDataManager with overridable funcs; only
// the methods a test exercises need to be set.
type stubManager struct {
	createUser func(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error)
	updateUser func(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error)
	deleteUser func(ctx context.Context, username string, cc ports.ChangeContext) error
	getUser    func(ctx context.Context, username string) (*domain.User, error)
	getUsers   func(ctx context.Context) ([]*domain.User, error)

	createRole func(ctx context.Context, role *domain.Role, cc ports.ChangeContext) (*domain.Role, error)
	deleteRole func(ctx context.Context, name string, cc ports.ChangeContext) error

	createPerm func(ctx context.Context, perm *domain.Permission, cc ports.ChangeContext) (*domain.Permission, error)
	crudPerms  func(ctx context.Context, namespace, name string, cc ports.ChangeContext) (map[string]*domain.Permission, error)
}

func (s *stubManager) NewContext() ports.ChangeContext { return nil }

func (s *stubManager) CreateUser(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error) {
	return s.createUser(ctx, user, cc)
}
func (s *stubManager) UpdateUser(ctx context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error) {
	return s.updateUser(ctx, user, cc)
}
func (s *stubManager) DeleteUser(ctx context.Context, username string, cc ports.ChangeContext) error {
	return s.deleteUser(ctx, username, cc)
}
func (s *stubManager) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, username)
}
func (s *stubManager) GetUsers(ctx context.Context) ([]*domain.User, error) {
	return s.getUsers(ctx)
}
func (s *stubManager) CreateRole(ctx context.Context, role *domain.Role, cc ports.ChangeContext) (*domain.Role, error) {
	return s.createRole(ctx, role, cc)
}
func (s *stubManager) UpdateRole(context.Context, *domain.Role, ports.ChangeContext) (*domain.Role, error) {
	panic("not stubbed")
}
func (s *stubManager) DeleteRole(ctx context.Context, name string, cc ports.ChangeContext) error {
	return s.deleteRole(ctx, name, cc)
}
func (s *stubManager) GetRole(context.Context, string) (*domain.Role, error) { panic("not stubbed") }
func (s *stubManager) GetRoles(context.Context) ([]*domain.Role, error)      { panic("not stubbed") }
func (s *stubManager) CreatePermission(ctx context.Context, perm *domain.Permission, cc ports.ChangeContext) (*domain.Permission, error) {
	return s.createPerm(ctx, perm, cc)
}
func (s *stubManager) UpdatePermission(context.Context, *domain.Permission, ports.ChangeContext) (*domain.Permission, error) {
	panic("not stubbed")
}
func (s *stubManager) DeletePermission(context.Context, string, ports.ChangeContext) error {
	panic("not stubbed")
}
func (s *stubManager) GetPermission(context.Context, string) (*domain.Permission, error) {
	panic("not stubbed")
}
func (s *stubManager) GetPermissions(context.Context) ([]*domain.Permission, error) {
	panic("not stubbed")
}
func (s *stubManager) CreateCRUDPermissions(ctx context.Context, namespace, name string, cc ports.ChangeContext) (map[string]*domain.Permission, error) {
	return s.crudPerms(ctx, namespace, name, cc)
}

// stubPasswords is a no-cost PasswordService for handler tests.
type stubPasswords struct{}

func (stubPasswords) GeneratePassword() string { return "generated" }
func (stubPasswords) DigestPassword(password string) (string, error) {
	return "digest:" + password, nil
}
func (stubPasswords) VerifyPassword(digest, candidate string) bool {
	return digest == "digest:"+candidate
}

func newEchoContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUserHandlerCreate(t *testing.T) {
	mgr := &stubManager{
		createUser: func(_ context.Context, user *domain.User, cc ports.ChangeContext) (*domain.User, error) {
			if cc != nil {
				t.Fatalf("handler must not pass a change context")
			}
			if user.PasswordDigest != "digest:hunter-2" {
				t.Fatalf("expected digested password, got %q", user.PasswordDigest)
			}
			return user, nil
		},
	}
	h := NewUserHandler(mgr, stubPasswords{})

	body := `{"username":"jdoe","first_name":"Jane","last_name":"Doe","email":"jdoe@example.com","password":"hunter-2"}`
	c, rec := newEchoContext(t, http.MethodPost, "/users", body)

	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter-2") {
		t.Fatal("response must not leak the password")
	}
}

func TestUserHandlerCreateInvalidPayload(t *testing.T) {
	h := NewUserHandler(&stubManager{}, stubPasswords{})

	// Username below the 4 character minimum.
	body := `{"username":"jd","first_name":"Jane","last_name":"Doe","email":"jdoe@example.com"}`
	c, _ := newEchoContext(t, http.MethodPost, "/users", body)

	err := h.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandlerUpdateUsesPathIdentity(t *testing.T) {
	mgr := &stubManager{
		getUser: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{Username: username, PasswordDigest: "digest:stored"}, nil
		},
		updateUser: func(_ context.Context, user *domain.User, _ ports.ChangeContext) (*domain.User, error) {
			if user.Username != "jdoe" {
				t.Fatalf("expected path username, got %q", user.Username)
			}
			return user, nil
		},
	}
	h := NewUserHandler(mgr, stubPasswords{})

	// Body carries a different username; the path wins.
	body := `{"username":"other","first_name":"Jane","last_name":"Doe","email":"jdoe@example.com"}`
	c, rec := newEchoContext(t, http.MethodPut, "/users/jdoe", body)
	c.SetParamNames("username")
	c.SetParamValues("jdoe")

	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandlerUpdatePasswordHandling(t *testing.T) {
	var sent *domain.User
	mgr := &stubManager{
		getUser: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{Username: username, PasswordDigest: "digest:stored"}, nil
		},
		updateUser: func(_ context.Context, user *domain.User, _ ports.ChangeContext) (*domain.User, error) {
			sent = user
			return user, nil
		},
	}
	h := NewUserHandler(mgr, stubPasswords{})

	// No password in the body: the stored digest is carried into the update
	// so the merge does not clear it.
	body := `{"first_name":"Jane","last_name":"Doe","email":"jdoe@example.com"}`
	c, _ := newEchoContext(t, http.MethodPut, "/users/jdoe", body)
	c.SetParamNames("username")
	c.SetParamValues("jdoe")
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if sent.PasswordDigest != "digest:stored" {
		t.Fatalf("expected stored digest carried through, got %q", sent.PasswordDigest)
	}

	// A new password in the body replaces the stored digest.
	body = `{"first_name":"Jane","last_name":"Doe","email":"jdoe@example.com","password":"hunter-2"}`
	c, _ = newEchoContext(t, http.MethodPut, "/users/jdoe", body)
	c.SetParamNames("username")
	c.SetParamValues("jdoe")
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if sent.PasswordDigest != "digest:hunter-2" {
		t.Fatalf("expected new digest, got %q", sent.PasswordDigest)
	}
}

func TestUserHandlerDelete(t *testing.T) {
	mgr := &stubManager{
		deleteUser: func(_ context.Context, username string, _ ports.ChangeContext) error {
			if username != "jdoe" {
				t.Fatalf("unexpected username %q", username)
			}
			return nil
		},
	}
	h := NewUserHandler(mgr, stubPasswords{})

	c, rec := newEchoContext(t, http.MethodDelete, "/users/jdoe", "")
	c.SetParamNames("username")
	c.SetParamValues("jdoe")

	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestUserHandlerGetPropagatesNotFound(t *testing.T) {
	mgr := &stubManager{
		getUser: func(_ context.Context, username string) (*domain.User, error) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		},
	}
	h := NewUserHandler(mgr, stubPasswords{})

	c, _ := newEchoContext(t, http.MethodGet, "/users/ghost", "")
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	err := h.Get(c)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound to propagate, got %v", err)
	}
}

func TestUserHandlerListEmpty(t *testing.T) {
	mgr := &stubManager{
		getUsers: func(context.Context) ([]*domain.User, error) { return nil, nil },
	}
	h := NewUserHandler(mgr, stubPasswords{})

	c, rec := newEchoContext(t, http.MethodGet, "/users", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty data array, got %s", rec.Body.String())
	}
}
