package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authcore/pkg/binder"
	"github.com/dmitrymomot/authcore/pkg/handler"
)

var (
	jsonBody    handler.Bind = binder.JSON()
	pathParams  handler.Bind = binder.Path(chi.URLParam)
	queryParams handler.Bind = binder.Query()
)

func wrap[R any](a *API, h handler.HandlerFunc[R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h, handler.WithBinders(binders...), handler.WithErrorHandler(a.writeError))
}
