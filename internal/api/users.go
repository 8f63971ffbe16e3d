package api

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/handler"
	"github.com/dmitrymomot/authcore/pkg/session"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

var (
	errNoSession    = auth.NewError(auth.KindUnauthorized, "Unauthorized", nil)
	errUserNotFound = auth.NewError(auth.KindNotFound, "User not found", nil)
)

func (a *API) profile(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(errNoSession)
	}
	user, err := a.svc.Profile(ctx, userID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user)
}

// updateProfile replaces email and display name; both are required.
func (a *API) updateProfile(ctx handler.Context, req auth.ProfileInput) handler.Response {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(errNoSession)
	}
	return a.saveProfile(ctx, userID, req, true)
}

// patchProfile changes only the fields present in the body.
func (a *API) patchProfile(ctx handler.Context, req auth.ProfileInput) handler.Response {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return handler.Error(errNoSession)
	}
	return a.saveProfile(ctx, userID, req, false)
}

type userRequest struct {
	ID string `path:"id"`
}

func (a *API) userProfile(ctx handler.Context, req userRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errUserNotFound)
	}
	user, err := a.svc.Profile(ctx, id)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user)
}

type userProfileRequest struct {
	ID                 string `path:"id" json:"-"`
	Email              string `path:"-" json:"email"`
	DisplayName        string `path:"-" json:"display_name"`
	IsTwoFactorEnabled *bool  `path:"-" json:"is_two_factor_enabled,omitempty"`
}

func (a *API) updateUserProfile(ctx handler.Context, req userProfileRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errUserNotFound)
	}
	return a.saveProfile(ctx, id, auth.ProfileInput{
		Email:              req.Email,
		DisplayName:        req.DisplayName,
		IsTwoFactorEnabled: req.IsTwoFactorEnabled,
	}, true)
}

func (a *API) saveProfile(ctx handler.Context, userID uuid.UUID, req auth.ProfileInput, full bool) handler.Response {
	rules := []validator.Rule{
		validator.Optional(req.Email, validator.ValidEmail("email", req.Email)),
		validator.MaxLen("display_name", req.DisplayName, 100),
	}
	if full {
		rules = append(rules,
			validator.Required("email", req.Email),
			validator.Required("display_name", req.DisplayName),
		)
	}
	if err := validator.Apply(rules...); err != nil {
		return handler.Error(err)
	}

	user, err := a.svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user)
}
