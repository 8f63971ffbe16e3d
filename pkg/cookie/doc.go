// Package cookie writes and reads HTTP cookies with shared defaults and
// optional HMAC-SHA256 signing.
//
// The session package uses it as the cookie transport: the opaque session
// token is written with SetSigned and read back with GetSigned, so a forged
// or truncated cookie never reaches the session store.
//
//	man, err := cookie.New([]string{secret}, cookie.WithSecure(true))
//	if err != nil {
//		return err
//	}
//	man.SetSigned(w, "sid", token, cookie.WithMaxAge(3600))
//	token, err := man.GetSigned(r, "sid")
//
// Multiple secrets enable rotation: the first signs, all of them verify.
// Config loads secrets and attributes from COOKIE_* environment variables.
package cookie
