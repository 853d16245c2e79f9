package domain

// AdminRole is the bootstrap administrator role name.
const AdminRole = "admin"

// RoleNamespace prefixes permissions guarding role administration.
const RoleNamespace = "roles"

// Role is a named grant holding a set of permission names.
type Role struct {
	Name        string   `json:"name" validate:"required"`
	Permissions []string `json:"permissions,omitempty"`
}

// AddPermission adds a permission name to the role. Duplicates are no-ops.
func (r *Role) AddPermission(name string) {
	if r.HasPermission(name) {
		return
	}
	r.Permissions = append(r.Permissions, name)
}

// RemovePermission removes a permission name and reports whether the
// permission set changed.
func (r *Role) RemovePermission(name string) bool {
	for i, p := range r.Permissions {
		if p == name {
			r.Permissions = append(r.Permissions[:i], r.Permissions[i+1:]...)
			return true
		}
	}
	return false
}

// HasPermission reports whether the role holds the named permission.
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// UpdateFrom overwrites the role's permission set from in. The role name is
// never altered.
func (r *Role) UpdateFrom(in *Role) {
	r.Permissions = append([]string(nil), in.Permissions...)
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	cp := *r
	cp.Permissions = append([]string(nil), r.Permissions...)
	return &cp
}
