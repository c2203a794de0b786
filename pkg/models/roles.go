package models

import (
	"fmt"
)

// Role represents the role carried by a console session
type Role string

// These are the only roles a session can hold
const (
	RoleAdmin   Role = "admin"   // registers students, reviews records and exports reports
	RoleStudent Role = "student" // marks their own attendance
)

// validRoles lists every known role in display order.
var validRoles = []Role{RoleAdmin, RoleStudent}

// ListRoles returns a slice of all existing roles as strings.
func ListRoles() []string {
	result := make([]string, 0, len(validRoles))
	for _, r := range validRoles {
		result = append(result, r.String())
	}
	return result
}

// IsValid checks if the Role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	for _, v := range validRoles {
		if r == v {
			return true
		}
	}
	return false
}

// String implements the fmt.Stringer interface, providing a string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// UnmarshalText and MarshalText methods
func (r *Role) UnmarshalText(text []byte) error {
	s := Role(text)
	if !s.IsValid() {
		return fmt.Errorf("invalid role: %s", text)
	}
	*r = s
	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
