package domain

import "strings"

// Wildcard is the permission name that implies every other permission.
const Wildcard = "*"

// Standard CRUD verbs used when generating permission sets for a resource.
const (
	VerbCreate = "create"
	VerbRead   = "read"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// PermissionNamespace prefixes permissions guarding permission administration.
const PermissionNamespace = "permissions"

// PermissionName joins name parts with the colon convention, e.g.
// PermissionName("permissions", "create") == "permissions:create".
func PermissionName(parts ...string) string {
	return strings.Join(parts, ":")
}

// Permission is a named grant. A permission may carry an explicit set of
// implied permission names in addition to the wildcard/prefix convention.
type Permission struct {
	Name    string   `json:"name" validate:"required"`
	Implied []string `json:"implied,omitempty"`
}

// Implies reports whether holding this permission is sufficient to be
// granted the named permission. "*" implies everything; a name ending in
// "*" implies any strictly longer name sharing the prefix; explicitly
// implied names match under the same rules.
func (p *Permission) Implies(name string) bool {
	if permissionMatches(p.Name, name) {
		return true
	}
	for _, imp := range p.Implied {
		if permissionMatches(imp, name) {
			return true
		}
	}
	return false
}

func permissionMatches(pattern, name string) bool {
	if pattern == name || pattern == Wildcard {
		return true
	}
	if strings.HasSuffix(pattern, Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		return len(name) > len(prefix) && strings.HasPrefix(name, prefix)
	}
	return false
}

// UpdateFrom overwrites the permission's implied set from in. The name is
// never altered.
func (p *Permission) UpdateFrom(in *Permission) {
	p.Implied = append([]string(nil), in.Implied...)
}

// Clone returns a deep copy of the permission.
func (p *Permission) Clone() *Permission {
	cp := *p
	cp.Implied = append([]string(nil), p.Implied...)
	return &cp
}
