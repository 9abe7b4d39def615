// Package vault seals credentials before they are attached to a project.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// TagPrefix marks a value as ciphertext for display purposes.
	TagPrefix = "enc_"
	scheme    = TagPrefix + "xc20p$"
)

// Encrypter turns a plaintext secret into a scheme-tagged ciphertext.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// Sealer encrypts with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

var _ Encrypter = (*Sealer)(nil)

// NewSealer builds a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("vault key: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromBase64 decodes a base64 key. An empty key yields a random
// key that lives only as long as the process.
func NewSealerFromBase64(encoded string) (*Sealer, bool, error) {
	if encoded == "" {
		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate vault key: %w", err)
		}
		s, err := NewSealer(key)
		return s, true, err
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("decode vault key: %w", err)
	}
	s, err := NewSealer(key)
	return s, false, err
}

func (s *Sealer) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return scheme + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, scheme) {
		return "", errors.New("vault: unsupported ciphertext scheme")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, scheme))
	if err != nil {
		return "", fmt.Errorf("vault: decode ciphertext: %w", err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errors.New("vault: ciphertext too short")
	}
	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("vault: open: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether value carries the ciphertext tag. Legacy plain
// values are displayed as unencrypted.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, TagPrefix)
}
