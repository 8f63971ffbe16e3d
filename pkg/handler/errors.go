package handler

import "errors"

// ErrNilResponse is reported when a handler returns nil.
var ErrNilResponse = errors.New("handler.nil_response")
