// Package secrets seals OAuth tokens before they reach a repository.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealedPrefix marks values produced by Seal so plaintext rows written before
// encryption was enabled can still be read.
const sealedPrefix = "sealed:v1:"

// Sealer encrypts and decrypts short secrets such as access and refresh tokens.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Noop stores values as given.
type Noop struct{}

func (Noop) Seal(plaintext string) (string, error) { return plaintext, nil }
func (Noop) Open(value string) (string, error)     { return value, nil }

// XChaCha seals values with XChaCha20-Poly1305 under a key derived from a passphrase.
type XChaCha struct {
	key []byte
}

var _ Sealer = (*XChaCha)(nil)

// NewXChaCha derives a 256 bit key from passphrase using HKDF-SHA256.
func NewXChaCha(passphrase string) (*XChaCha, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("[secrets NewXChaCha] passphrase cannot be empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("airtable-forms token sealing"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("[secrets NewXChaCha] derive key: %w", err)
	}
	return &XChaCha{key: key}, nil
}

// New returns an XChaCha sealer for a non-empty passphrase and Noop otherwise.
func New(passphrase string) (Sealer, error) {
	if passphrase == "" {
		return Noop{}, nil
	}
	return NewXChaCha(passphrase)
}

func (x *XChaCha) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(x.key)
	if err != nil {
		return "", fmt.Errorf("[XChaCha Seal] %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[XChaCha Seal] nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (x *XChaCha) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("[XChaCha Open] decode: %w", err)
	}
	aead, err := chacha20poly1305.NewX(x.key)
	if err != nil {
		return "", fmt.Errorf("[XChaCha Open] %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("[XChaCha Open] sealed value too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("[XChaCha Open] %w", err)
	}
	return string(plaintext), nil
}
