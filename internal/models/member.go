package models

// Role is a capability a member operates under.
type Role string

const (
	RolePM         Role = "PM"
	RoleFreelancer Role = "FREELANCER"
)

// Valid reports whether r is one of the two known capabilities.
func (r Role) Valid() bool {
	return r == RolePM || r == RoleFreelancer
}

// Member represents a marketplace account. One physical account may hold
// both roles.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Roles []Role `json:"roles"`
}

// HasRole reports whether the member holds the given capability.
func (m *Member) HasRole(role Role) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}
