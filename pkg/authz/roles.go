package authz

import (
	"slices"
	"strings"
)

// RoleSet is a read-only snapshot of the roles asserted for a caller.
type RoleSet map[string]struct{}

func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		r = normalizeRole(r)
		if r == "" {
			continue
		}
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(role string) bool {
	_, ok := s[normalizeRole(role)]
	return ok
}

func (s RoleSet) Intersects(other RoleSet) bool {
	for r := range other {
		if _, ok := s[r]; ok {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted, for stable subjects and log fields.
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
