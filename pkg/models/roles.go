package models

import (
	"fmt"
	"slices"
)

// Role represents a member's standing in the community.
type Role string

const (
	RoleGuest     Role = "guest"     // not signed in, read-only access to public content
	RoleMember    Role = "member"    // signed in, owns their posts, comments and uploads
	RoleAuthor    Role = "author"    // may publish to the blog
	RoleModerator Role = "moderator" // may hide forum content and manage tags
	RoleAdmin     Role = "admin"     // full control of the admin panel and the store
)

// RoleHierarchy defines the privilege level of each role.
// Higher numbers represent higher privileges.
var RoleHierarchy = map[Role]int{
	RoleGuest:     0,
	RoleMember:    10,
	RoleAuthor:    20,
	RoleModerator: 30,
	RoleAdmin:     40,
}

// ListRoles returns every role, lowest privilege first.
func ListRoles() []string {
	roles := make([]Role, 0, len(RoleHierarchy))
	for r := range RoleHierarchy {
		roles = append(roles, r)
	}
	slices.SortFunc(roles, func(a, b Role) int {
		return RoleHierarchy[a] - RoleHierarchy[b]
	})

	result := make([]string, 0, len(roles))
	for _, r := range roles {
		result = append(result, r.String())
	}
	return result
}

// IsValid checks if the Role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	_, exists := RoleHierarchy[r]
	return exists
}

// String implements the fmt.Stringer interface, providing a string representation of the Role.
func (r Role) String() string {
	return string(r)
}

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

// AtLeast reports whether r ranks at or above min. Unknown roles never do.
func (r Role) AtLeast(min Role) bool {
	if r.IsValid() && min.IsValid() {
		return RoleHierarchy[r] >= RoleHierarchy[min]
	}
	return false
}
