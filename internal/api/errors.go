package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/binder"
	"github.com/dmitrymomot/authcore/pkg/handler"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

const msgInternal = "Internal server error"

// KindTooManyRequests is reported by rate limited endpoints.
const KindTooManyRequests auth.Kind = "too_many_requests"

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error   auth.Kind           `json:"error"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

var kindStatus = map[auth.Kind]int{
	auth.KindConflict:     http.StatusConflict,
	auth.KindNotFound:     http.StatusNotFound,
	auth.KindUnauthorized: http.StatusUnauthorized,
	auth.KindForbidden:    http.StatusForbidden,
	auth.KindBadRequest:   http.StatusBadRequest,
	auth.KindInternal:     http.StatusInternalServerError,
	KindTooManyRequests:   http.StatusTooManyRequests,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind auth.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func bodyFor(err error) ErrorBody {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return ErrorBody{Error: auth.KindBadRequest, Message: "Validation failed", Details: ve.Map()}
	}

	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return ErrorBody{Error: auth.KindBadRequest, Message: "Content-Type must be application/json"}
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return ErrorBody{Error: auth.KindBadRequest, Message: "Malformed request body"}
	case errors.Is(err, binder.ErrFailedToParsePath), errors.Is(err, binder.ErrFailedToParseQuery):
		return ErrorBody{Error: auth.KindBadRequest, Message: "Malformed request parameters"}
	}

	// auth.Error messages are written for end users, internal ones included.
	var ae *auth.Error
	if errors.As(err, &ae) && ae.Message != "" {
		if _, known := kindStatus[ae.Kind]; known {
			return ErrorBody{Error: ae.Kind, Message: ae.Message}
		}
	}
	return ErrorBody{Error: auth.KindInternal, Message: msgInternal}
}

func (a *API) writeError(ctx handler.Context, err error) {
	body := bodyFor(err)
	status := StatusOf(body.Error)
	if status >= http.StatusInternalServerError {
		a.log.ErrorContext(ctx, "request failed",
			logger.Error(err),
			logger.Component("api"),
		)
	}
	writeJSON(ctx.ResponseWriter(), status, body)
}

// WriteUnauthorized answers requests rejected by session.Manager.RequireAuth.
func WriteUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: auth.KindUnauthorized, Message: "Unauthorized"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
