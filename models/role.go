package models

// Role is the system-wide user role. The same values appear in user rows,
// JWT claims and inter-service payloads, so the strings must never change.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeamLeader Role = "team_leader"
	RoleMember     Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeamLeader, RoleMember:
		return true
	}
	return false
}
