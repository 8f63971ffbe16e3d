package rbac

import "net/http"

// RoleResolver returns the role of the principal behind r.
type RoleResolver func(r *http.Request) (string, error)

// ErrorHandler answers a request that failed role resolution or the
// permission check.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareOptions struct {
	onError ErrorHandler
}

type MiddlewareOption func(*middlewareOptions)

// WithErrorHandler replaces the default plain 403 response.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if h != nil {
			o.onError = h
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// Require lets a request through only when its role holds every permission.
// The resolved role is stored in the request context.
func Require(a *Authorizer, resolve RoleResolver, permissions []string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{onError: defaultErrorHandler}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := resolve(r)
			if err != nil {
				o.onError(w, r, err)
				return
			}
			if err := a.CanAll(role, permissions...); err != nil {
				o.onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}
