// Package handler turns typed request handlers into http.HandlerFunc.
//
// A handler receives a Context and a request struct filled by binders, and
// returns a Response that renders itself:
//
//	func login(ctx handler.Context, req loginRequest) handler.Response {
//	    res, err := svc.Login(ctx, ctx.ResponseWriter(), ctx.Request(), req.LoginInput)
//	    if err != nil {
//	        return handler.Error(err)
//	    }
//	    return handler.JSON(res)
//	}
//
//	r.Post("/auth/login", handler.Wrap(login,
//	    handler.WithBinders(binder.JSON()),
//	    handler.WithErrorHandler(writeError),
//	))
//
// Binding and rendering failures, and Error responses, go to the error handler.
package handler
