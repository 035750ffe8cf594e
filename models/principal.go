package models

// Principal is the identity resolved from a request's bearer token. It is
// built fresh per request by the auth middleware and never persisted. Token
// keeps the raw credential so outbound peer calls can re-assert the caller's
// identity.
type Principal struct {
	Username string
	Role     Role
	Token    string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool { return p.Role == RoleAdmin }
