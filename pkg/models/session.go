package models

import "strings"

// Session is the authenticated identity of the console operator.
// It never carries the identifier or secret used to log in.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Validate reports whether the session is well formed.
func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return NewValidationError("session id is required")
	}
	if !s.Role.IsValid() {
		return NewValidationError("session role must be one of: " + strings.Join(ListRoles(), ", "))
	}
	return nil
}

// IsAdmin reports whether the session holds the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// IsStudent reports whether the session holds the student role.
func (s *Session) IsStudent() bool {
	return s != nil && s.Role == RoleStudent
}

// AuthState is a consistent snapshot of the authentication state.
// Loading is true while the initial rehydration or a login attempt is in flight.
type AuthState struct {
	Loading bool
	Session *Session
}

// Authenticated reports whether a session is present.
func (a AuthState) Authenticated() bool {
	return a.Session != nil
}

// CredentialRecord is one entry of the credential table.
// Secret holds a plaintext seed which is hashed when the table is built;
// SecretHash may be supplied instead with a precomputed bcrypt hash.
type CredentialRecord struct {
	Identifier string `yaml:"identifier"`
	Secret     string `yaml:"secret,omitempty"`
	SecretHash string `yaml:"secret_hash,omitempty"`
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Role       Role   `yaml:"role"`
}

// Session projects the record to the session it grants.
func (c CredentialRecord) Session() Session {
	return Session{
		ID:   c.ID,
		Name: c.Name,
		Role: c.Role,
	}
}

// Policy is the access rule for a route.
// Public routes are reachable without a session. A non-empty Role
// restricts the route to sessions holding exactly that role; otherwise
// any authenticated session is allowed.
type Policy struct {
	Public bool
	Role   Role
}

var (
	PolicyPublic        = Policy{Public: true}
	PolicyAuthenticated = Policy{}
	PolicyAdmin         = Policy{Role: RoleAdmin}
)

// RequiresRole reports whether the policy restricts access to a single role.
func (p Policy) RequiresRole() bool {
	return !p.Public && p.Role != ""
}

// Permits reports whether the given session satisfies the policy.
func (p Policy) Permits(s *Session) bool {
	if p.Public {
		return true
	}
	if s == nil {
		return false
	}
	return p.Role == "" || s.Role == p.Role
}
