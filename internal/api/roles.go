package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/handler"
	"github.com/dmitrymomot/authcore/pkg/rbac"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// Permissions checked by the API.
const (
	PermProfileSelf = "profile.self"
	PermUsersRead   = "users.read"
	PermUsersUpdate = "users.update"
)

// DefaultRoles grants regular users their own profile and admins every
// user profile.
func DefaultRoles() map[string]rbac.Role {
	return map[string]rbac.Role{
		auth.RoleRegular: {Permissions: []string{PermProfileSelf}},
		auth.RoleAdmin:   {Permissions: []string{"users.*"}, Inherits: []string{auth.RoleRegular}},
	}
}

var errForbidden = auth.NewError(auth.KindForbidden, "Insufficient rights. You don't have access rights to this resource.", nil)

// roleOf reads the role of the session user from the store, so promotions
// and demotions apply to open sessions.
func (a *API) roleOf(r *http.Request) (string, error) {
	userID, ok := session.UserIDFromContext(r.Context())
	if !ok {
		return "", errNoSession
	}
	user, err := a.svc.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return "", errNoSession
		}
		return "", err
	}
	return user.Role, nil
}

// authorize requires the session user's role to hold every permission.
func (a *API) authorize(permissions ...string) func(http.Handler) http.Handler {
	return rbac.Require(a.authz, a.roleOf, permissions,
		rbac.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, rbac.ErrInsufficientPermissions) || errors.Is(err, rbac.ErrInvalidRole) {
				err = auth.NewError(errForbidden.Kind, errForbidden.Message, err)
			}
			a.writeError(handler.NewContext(w, r), err)
		}),
	)
}
