// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// stores it in the request context and echoes it in the response. Log
// records written with the request context carry it through LogAttr:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LogAttr))
package requestid
