// Package binder decodes HTTP request data into request structs.
//
// Each binder has the signature func(*http.Request, any) error and is passed
// to handler.WithBinders:
//
//	type resetRequest struct {
//	    Token    string `path:"token"`
//	    Password string `json:"password"`
//	}
//
//	h := handler.Wrap(newPassword,
//	    handler.WithBinders(binder.Path(chi.URLParam), binder.JSON()),
//	)
//
// JSON rejects unknown fields and bodies above DefaultMaxJSONSize. Path and
// Query read struct tags of the same name; untagged fields fall back to the
// lowercased field name and `-` skips a field. Failures wrap
// ErrFailedToParseJSON, ErrFailedToParsePath or ErrFailedToParseQuery.
package binder
