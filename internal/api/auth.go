package api

import (
	"net/http"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/handler"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

func (a *API) register(ctx handler.Context, req registerRequest) handler.Response {
	if err := validator.Apply(
		validator.Required("name", req.Name),
		validator.Required("email", req.Email),
		validator.ValidEmail("email", req.Email),
		validator.StrongPassword("password", req.Password, a.passwordPolicy),
		validator.EqualTo("password_repeat", req.PasswordRepeat, req.Password, "password"),
	); err != nil {
		return handler.Error(err)
	}

	res, err := a.svc.Register(ctx, ctx.ResponseWriter(), ctx.Request(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(res, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) login(ctx handler.Context, req auth.LoginInput) handler.Response {
	if err := validator.Apply(
		validator.Required("email", req.Email),
		validator.ValidEmail("email", req.Email),
		validator.Required("password", req.Password),
		validator.MaxLen("password", req.Password, 128),
	); err != nil {
		return handler.Error(err)
	}

	res, err := a.svc.Login(ctx, ctx.ResponseWriter(), ctx.Request(), req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(res)
}

func (a *API) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := a.svc.Logout(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

type providerRequest struct {
	Provider string `path:"provider" query:"-"`
	Code     string `path:"-" query:"code"`
}

func (a *API) connect(ctx handler.Context, req providerRequest) handler.Response {
	url, err := a.svc.AuthorizeURL(ctx, req.Provider)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]string{"url": url})
}

var errCodeRequired = auth.NewError(auth.KindBadRequest,
	"Code is required. Please check the correctness of the entered data.", nil)

func (a *API) callback(ctx handler.Context, req providerRequest) handler.Response {
	if req.Code == "" {
		return handler.Error(errCodeRequired)
	}
	if _, err := a.svc.OAuthCallback(ctx, ctx.ResponseWriter(), ctx.Request(), req.Provider, req.Code); err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(a.cfg.AllowedOrigin + "/")
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (a *API) confirmEmail(ctx handler.Context, req tokenRequest) handler.Response {
	user, err := a.svc.Confirmation().Confirm(ctx, req.Token)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (a *API) requestReset(ctx handler.Context, req resetRequest) handler.Response {
	if err := validator.Apply(
		validator.Required("email", req.Email),
		validator.ValidEmail("email", req.Email),
	); err != nil {
		return handler.Error(err)
	}
	if err := a.svc.Recovery().SendRecovery(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

type resetTokenRequest struct {
	Token string `path:"token"`
}

func (a *API) checkResetToken(ctx handler.Context, req resetTokenRequest) handler.Response {
	if err := a.svc.Recovery().ConfirmRecovery(ctx, req.Token); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

type newPasswordRequest struct {
	Token          string `path:"token" json:"-"`
	Password       string `path:"-" json:"password"`
	PasswordRepeat string `path:"-" json:"password_repeat"`
}

func (a *API) newPassword(ctx handler.Context, req newPasswordRequest) handler.Response {
	if err := validator.Apply(
		validator.StrongPassword("password", req.Password, a.passwordPolicy),
		validator.EqualTo("password_repeat", req.PasswordRepeat, req.Password, "password"),
	); err != nil {
		return handler.Error(err)
	}
	if err := a.svc.Recovery().PasswordRecovery(ctx, req.Token, req.Password); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}
