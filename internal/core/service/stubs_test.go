package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

// memRepo is an in-memory ports.Repository used across the service tests.
// It supports snapshot/restore so memTxManager can simulate rollbacks.
type memRepo struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	roles       map[string]*domain.Role
	permissions map[string]*domain.Permission

	failSaveUser bool
	getUsersN    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:       make(map[string]*domain.User),
		roles:       make(map[string]*domain.Role),
		permissions: make(map[string]*domain.Permission),
	}
}

type repoSnapshot struct {
	users       map[string]*domain.User
	roles       map[string]*domain.Role
	permissions map[string]*domain.Permission
}

func (r *memRepo) snapshot() repoSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := repoSnapshot{
		users:       make(map[string]*domain.User, len(r.users)),
		roles:       make(map[string]*domain.Role, len(r.roles)),
		permissions: make(map[string]*domain.Permission, len(r.permissions)),
	}
	for k, v := range r.users {
		s.users[k] = v.Clone()
	}
	for k, v := range r.roles {
		s.roles[k] = v.Clone()
	}
	for k, v := range r.permissions {
		s.permissions[k] = v.Clone()
	}
	return s
}

func (r *memRepo) restore(s repoSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = s.users
	r.roles = s.roles
	r.permissions = s.permissions
}

func (r *memRepo) HasUser(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *memRepo) GetUser(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	return u.Clone(), nil
}

func (r *memRepo) GetUsers(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getUsersN++
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *memRepo) SaveUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaveUser {
		return errors.New("save user: connection reset")
	}
	r.users[user.Username] = user.Clone()
	return nil
}

func (r *memRepo) DeleteUser(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	delete(r.users, username)
	return nil
}

func (r *memRepo) HasRole(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.roles[name]
	return ok, nil
}

func (r *memRepo) GetRole(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", name, domain.ErrNotFound)
	}
	return role.Clone(), nil
}

func (r *memRepo) GetRoles(_ context.Context) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRepo) SaveRole(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.Name] = role.Clone()
	return nil
}

func (r *memRepo) DeleteRole(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[name]; !ok {
		return fmt.Errorf("role %q: %w", name, domain.ErrNotFound)
	}
	delete(r.roles, name)
	return nil
}

func (r *memRepo) HasPermission(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.permissions[name]
	return ok, nil
}

func (r *memRepo) GetPermission(_ context.Context, name string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permissions[name]
	if !ok {
		return nil, fmt.Errorf("permission %q: %w", name, domain.ErrNotFound)
	}
	return p.Clone(), nil
}

func (r *memRepo) GetPermissions(_ context.Context) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Permission, 0, len(r.permissions))
	for _, p := range r.permissions {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRepo) SavePermission(_ context.Context, perm *domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions[perm.Name] = perm.Clone()
	return nil
}

func (r *memRepo) DeletePermission(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.permissions[name]; !ok {
		return fmt.Errorf("permission %q: %w", name, domain.ErrNotFound)
	}
	delete(r.permissions, name)
	return nil
}

// memTxManager pairs with memRepo: each transaction snapshots the store at
// Begin and restores it on Rollback, so cascade atomicity is observable.
type memTxManager struct {
	repo *memRepo

	mu         sync.Mutex
	begun      int
	committed  int
	rolledBack int

	failBegin  bool
	failCommit bool
}

func newMemTxManager(repo *memRepo) *memTxManager {
	return &memTxManager{repo: repo}
}

func (m *memTxManager) Begin(ctx context.Context) (context.Context, ports.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBegin {
		return nil, nil, errors.New("begin: no reachable servers")
	}
	m.begun++
	return ctx, &memTx{m: m, snap: m.repo.snapshot()}, nil
}

type memTx struct {
	m    *memTxManager
	snap repoSnapshot
}

func (t *memTx) Commit(context.Context) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.m.failCommit {
		return errors.New("commit: transient transaction error")
	}
	t.m.committed++
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.m.rolledBack++
	t.m.repo.restore(t.snap)
	return nil
}

// countingObserver records the kinds it was notified about.
type countingObserver struct {
	mu    sync.Mutex
	kinds []domain.Kind
}

func (o *countingObserver) DataChanged(kind domain.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
}

func (o *countingObserver) count(kind domain.Kind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, k := range o.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func (o *countingObserver) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.kinds)
}
