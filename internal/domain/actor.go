package domain

// Role describes what a user may do on the marketplace.
type Role string

const (
	RoleParent   Role = "parent"
	RoleProvider Role = "provider"
	RoleBoth     Role = "both"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleProvider, RoleBoth, RoleAdmin:
		return true
	}
	return false
}

// IsParent reports whether the role can book trials and save listings.
func (r Role) IsParent() bool { return r == RoleParent || r == RoleBoth }

// IsProvider reports whether the role can own listings.
func (r Role) IsProvider() bool { return r == RoleProvider || r == RoleBoth }

// Actor is the authenticated caller of an operation. It is passed
// explicitly to every command instead of being read from ambient state.
type Actor struct {
	UserID string
	Role   Role
	Email  string
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool { return a.UserID != "" }

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
