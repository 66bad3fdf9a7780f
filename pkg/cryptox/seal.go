package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrSealedTooShort is returned when sealed data cannot contain a nonce.
var ErrSealedTooShort = errors.New("cryptox: sealed data too short")

// Sealer encrypts small secrets (the persisted bearer token) with AES-256-GCM.
// The key is derived from operator-supplied key material with HKDF-SHA256 so
// the material itself can be any length.
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer derives an AES-256 key from keyMaterial. The info string binds
// the key to one purpose, e.g. "console-session".
//
// Empty key material generates an ephemeral key: sealed data will not survive
// a restart. This is only meant for development.
func NewSealer(keyMaterial []byte, info string) (*Sealer, error) {
	if len(keyMaterial) == 0 {
		keyMaterial = make([]byte, 32)
		if _, err := rand.Read(keyMaterial); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral key material: %w", err)
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, keyMaterial, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	// Create AES-256 cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM mode (provides authentication)
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{gcm: gcm}, nil
}

// Seal encrypts plaintext.
// The output format is: [12-byte nonce][encrypted data][16-byte auth tag]
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// gcm.Seal appends the ciphertext and auth tag to nonce
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal with the same key.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrSealedTooShort
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
