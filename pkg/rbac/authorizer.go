package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Authorizer answers permission checks against precomputed role
// permissions. It is read-only after construction and safe for concurrent use.
type Authorizer struct {
	permissions map[string][]string
}

// NewAuthorizer loads roles from source, validates inheritance and flattens
// inherited permissions into each role.
func NewAuthorizer(ctx context.Context, source RoleSource) (*Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	a := &Authorizer{permissions: make(map[string][]string, len(roles))}
	for name := range roles {
		perms, err := collect(name, roles, nil)
		if err != nil {
			return nil, err
		}
		a.permissions[name] = normalizeScopes(perms)
	}
	return a, nil
}

// MustNewAuthorizer is NewAuthorizer for static role tables.
func MustNewAuthorizer(ctx context.Context, source RoleSource) *Authorizer {
	a, err := NewAuthorizer(ctx, source)
	if err != nil {
		panic(err)
	}
	return a
}

// collect walks the inheritance chain of name; path holds the roles
// already on the chain.
func collect(name string, roles map[string]Role, path []string) ([]string, error) {
	if slices.Contains(path, name) {
		return nil, errors.Join(ErrCircularInheritance, fmt.Errorf("role %q inherits itself via %v", name, path))
	}
	if len(path) > MaxInheritanceDepth {
		return nil, errors.Join(ErrCircularInheritance, fmt.Errorf("inheritance of %q deeper than %d", path[0], MaxInheritanceDepth))
	}
	role, ok := roles[name]
	if !ok {
		return nil, errors.Join(ErrUnknownParentRole, fmt.Errorf("role %q", name))
	}

	perms := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		inherited, err := collect(parent, roles, append(path, name))
		if err != nil {
			return nil, err
		}
		perms = append(perms, inherited...)
	}
	return perms, nil
}

// Can reports whether role holds permission, directly or inherited.
func (a *Authorizer) Can(role, permission string) error {
	perms, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	if !hasScope(perms, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

// CanAll reports whether role holds every permission.
func (a *Authorizer) CanAll(role string, permissions ...string) error {
	for _, p := range permissions {
		if err := a.Can(role, p); err != nil {
			return err
		}
	}
	return nil
}

// CanFromContext checks the role stored by WithRole.
func (a *Authorizer) CanFromContext(ctx context.Context, permission string) error {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return errors.Join(ErrRoleNotInContext, ErrInsufficientPermissions)
	}
	return a.Can(role, permission)
}

// Roles returns the known role names, sorted.
func (a *Authorizer) Roles() []string {
	names := make([]string, 0, len(a.permissions))
	for name := range a.permissions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
