package models

// Role is the user type carried in the bearer token.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleOwner      Role = "owner"
	RoleOwnerGuest Role = "owner_guest"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleOwner, RoleOwnerGuest, RoleAdmin:
		return true
	}
	return false
}

// Principal is the verified identity a request acts on behalf of.
type Principal struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanListRooms reports whether the principal may publish listings.
func (p Principal) CanListRooms() bool {
	return p.Role == RoleOwner || p.Role == RoleOwnerGuest || p.Role == RoleAdmin
}

// CanBook reports whether the principal may request reservations. Plain
// owners only manage listings.
func (p Principal) CanBook() bool {
	return p.Role == RoleGuest || p.Role == RoleOwnerGuest || p.Role == RoleAdmin
}
