package model

// RoleAlias defines the list of roles a user can have in the back office
type RoleAlias string

const (
	RoleAdmin   RoleAlias = "admin"
	RoleManager RoleAlias = "manager"
	RoleClient  RoleAlias = "client"
)

func (r RoleAlias) String() string {
	return string(r)
}

func (r RoleAlias) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleClient:
		return true
	default:
		return false
	}
}

// IsStaff is true for roles allowed into the admin surface
func (r RoleAlias) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}
