package common

import "sort"

// Role is one of the closed set of roles a wallet identity can hold.
type Role string

const (
	RoleUser         Role = "user"
	RoleEmployer     Role = "employer"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

// ParseRole maps a string onto the role enumeration.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleEmployer, RoleProfessional, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// RoleSet is a set of roles with membership and intersection checks.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// RoleSetFromStrings builds a set from stored role strings. Unknown values
// are rejected so a corrupted record cannot mint unexpected privileges.
func RoleSetFromStrings(values []string) (RoleSet, bool) {
	s := make(RoleSet, len(values))
	for _, v := range values {
		r, ok := ParseRole(v)
		if !ok {
			return nil, false
		}
		s[r] = struct{}{}
	}
	return s, true
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// IntersectsAny reports whether any role in s is also in other.
func (s RoleSet) IntersectsAny(other RoleSet) bool {
	for r := range s {
		if other.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the sorted string form, suitable for token claims and
// database columns.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// Authorize allows iff the principal's roles intersect the required set.
func Authorize(required, actual RoleSet) bool {
	return actual.IntersectsAny(required)
}
