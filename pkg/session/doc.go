// Package session manages server-side sessions bound to a user id.
//
// A Manager relies on a Transport to read and write the opaque session token
// (a signed cookie by default) and on a Store to persist session records.
// MemoryStore and RedisStore ship with the package.
//
//	cookies, _ := cookie.New(secrets)
//	sessions := session.New(session.NewRedisStore(rdb),
//		session.WithCookieManager(cookies),
//		session.WithTTL(24*time.Hour),
//	)
//
//	sess, err := sessions.Open(ctx, w, r, user.ID) // after every auth check passed
//	err = sessions.Destroy(ctx, w, r)              // logout
//
// Open always mints a fresh token and discards any session presented by the
// request. Failures wrap ErrSaveFailed and ErrDestroyFailed respectively, so
// callers can map them without inspecting store errors.
//
// Middleware places the request's session in the context; RequireAuth also
// rejects requests without one. Handlers read it with FromContext or
// UserIDFromContext.
package session
