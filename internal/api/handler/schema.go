package handler

import "github.com/commonweb/user-manager/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type userRequest struct {
	Username  string   `json:"username"   validate:"required,min=4,max=15"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"  validate:"required"`
	Email     string   `json:"email"      validate:"required,email"`
	Password  string   `json:"password,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

func (r *userRequest) toDomain() *domain.User {
	return &domain.User{
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Roles:     r.Roles,
	}
}

type roleRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Permissions []string `json:"permissions,omitempty"`
}

func (r *roleRequest) toDomain() *domain.Role {
	return &domain.Role{Name: r.Name, Permissions: r.Permissions}
}

type permissionRequest struct {
	Name    string   `json:"name"    validate:"required"`
	Implied []string `json:"implied,omitempty"`
}

func (r *permissionRequest) toDomain() *domain.Permission {
	return &domain.Permission{Name: r.Name, Implied: r.Implied}
}

type crudPermissionsRequest struct {
	Namespace string `json:"namespace" validate:"required"`
	Name      string `json:"name"      validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Domain entities serialize cleanly (the password digest is excluded via its
// json tag), so responses reuse them instead of mirroring every field here.
type listResponse[T any] struct {
	Data []T `json:"data"`
}
