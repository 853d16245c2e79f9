package domain

// Username length bounds, enforced before any repository call.
const (
	UsernameMinLen = 4
	UsernameMaxLen = 15
)

// AdminUsername is the bootstrap administrator account name.
const AdminUsername = "admin"

// UserNamespace prefixes permissions guarding user administration.
const UserNamespace = "users"

// User is an authenticated actor with a set of assigned roles. The username
// is the immutable identity; everything else is mutable through UpdateFrom.
type User struct {
	Username       string   `json:"username" validate:"required,min=4,max=15"`
	FirstName      string   `json:"first_name" validate:"required"`
	LastName       string   `json:"last_name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	PasswordDigest string   `json:"-"`
	Roles          []string `json:"roles,omitempty"`
}

// AddRole adds a role name to the user's role set. Duplicate additions are
// no-ops, preserving unique membership.
func (u *User) AddRole(name string) {
	if u.HasRole(name) {
		return
	}
	u.Roles = append(u.Roles, name)
}

// RemoveRole removes a role name from the user's role set and reports
// whether the set changed.
func (u *User) RemoveRole(name string) bool {
	for i, r := range u.Roles {
		if r == name {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// UpdateFrom overwrites every mutable field from in, last write wins; an
// empty incoming digest clears the stored one. Only the username, the
// identity, is never altered. Callers that mean "keep the current password"
// must carry the stored digest into in themselves.
func (u *User) UpdateFrom(in *User) {
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.PasswordDigest = in.PasswordDigest
	u.Roles = append([]string(nil), in.Roles...)
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp
}
