package domain

import "time"

type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// HomePath is where a user lands after signing in.
func (r Role) HomePath() string {
	switch r {
	case RoleSeller:
		return "/seller"
	case RoleAdmin, RoleSuperAdmin:
		return "/admin"
	default:
		return "/"
	}
}

// IsAdmin reports whether the role administers the whole storefront.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanFulfil reports whether the role may move orders through fulfillment.
func (r Role) CanFulfil() bool {
	return r == RoleSeller || r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      Role
	VendorID  *string
	CreatedAt time.Time
}
