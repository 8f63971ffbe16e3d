// Package secrets encrypts short secrets, such as OAuth access and refresh
// tokens, before they are written to storage.
//
// A Cipher derives an AES-256 key from a 32-byte master key with
// HKDF-SHA-256, bound to a purpose label so that one master key can serve
// several independent ciphers. Values are sealed with AES-GCM; the random
// nonce is prepended and the result is base64 encoded.
//
// # Usage
//
//	key, _ := secrets.GenerateKey()
//	c, err := secrets.New(key, "oauth-tokens")
//	if err != nil {
//		return err
//	}
//	sealed, _ := c.Encrypt("ya29.a0Af...")
//	plain, _ := c.Decrypt(sealed)
//
// The empty string is passed through unchanged in both directions, so
// optional columns stay empty.
//
// # Configuration
//
// NewFromConfig reads a base64 encoded key from Config.Key
// (TOKEN_ENCRYPTION_KEY). An empty key yields a nil Cipher; a nil Cipher
// is valid and stores values in plain text.
package secrets
