package rbac

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// MaxInheritanceDepth bounds role inheritance chains.
const MaxInheritanceDepth = 10

// Role is a set of permissions plus the roles it inherits from.
type Role struct {
	Permissions []string
	Inherits    []string
}

// RoleSource supplies role definitions to NewAuthorizer.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

// MemorySource serves a fixed set of roles.
type MemorySource struct {
	roles map[string]Role
}

// NewMemorySource copies roles so later changes to the map are not seen.
func NewMemorySource(roles map[string]Role) *MemorySource {
	cp := make(map[string]Role, len(roles))
	for name, r := range roles {
		cp[name] = Role{
			Permissions: slices.Clone(r.Permissions),
			Inherits:    slices.Clone(r.Inherits),
		}
	}
	return &MemorySource{roles: cp}
}

func (s *MemorySource) Load(context.Context) (map[string]Role, error) {
	return maps.Clone(s.roles), nil
}

// hasScope reports whether granted covers want.
func hasScope(granted []string, want string) bool {
	for _, g := range granted {
		switch {
		case g == "*", g == want:
			return true
		case strings.HasSuffix(g, ".*") && strings.HasPrefix(want, strings.TrimSuffix(g, "*")):
			return true
		}
	}
	return false
}

// normalizeScopes sorts and deduplicates scopes.
func normalizeScopes(scopes []string) []string {
	out := slices.Clone(scopes)
	slices.Sort(out)
	return slices.Compact(out)
}
