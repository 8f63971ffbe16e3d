// Package rbac maps roles to permissions and guards HTTP routes with them.
//
// Permissions are dotted scopes such as "users.read". A granted scope
// ending in ".*" covers every scope below it, and "*" covers everything.
// A role may inherit the permissions of other roles; cycles are rejected
// when the Authorizer is built.
//
//	authz, err := rbac.NewAuthorizer(ctx, rbac.NewMemorySource(map[string]rbac.Role{
//		"regular": {Permissions: []string{"profile.self"}},
//		"admin":   {Permissions: []string{"users.*"}, Inherits: []string{"regular"}},
//	}))
//
//	r.With(rbac.Require(authz, roleOf, []string{"users.read"})).Get("/users/{id}", show)
//
// Require resolves the role of the request with a caller supplied function,
// stores it in the context (RoleFromContext) and answers 403 when the role
// lacks the permission.
package rbac
