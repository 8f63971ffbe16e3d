package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required master key length in bytes.
const KeySize = 32

const hkdfSalt = "authcore-secrets-v1"

// Config holds the master key as standard base64.
type Config struct {
	Key string `env:"TOKEN_ENCRYPTION_KEY"`
}

// Cipher seals and opens strings with a key derived for one purpose.
type Cipher struct {
	aead cipher.AEAD
}

// New derives a purpose-bound key from master and prepares AES-GCM.
func New(master []byte, purpose string) (*Cipher, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKey
	}

	key := make([]byte, KeySize)
	defer clear(key)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, []byte(hkdfSalt), []byte(purpose)), key); err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return &Cipher{aead: aead}, nil
}

// NewFromConfig decodes cfg.Key. It returns a nil Cipher when no key is set.
func NewFromConfig(cfg Config, purpose string) (*Cipher, error) {
	if cfg.Key == "" {
		return nil, nil
	}
	master, err := base64.StdEncoding.DecodeString(cfg.Key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	defer clear(master)
	return New(master, purpose)
}

// GenerateKey returns a random master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext. A nil Cipher and the empty string are passed through.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if c == nil || ciphertext == "" {
		return ciphertext, nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n+c.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plain), nil
}
