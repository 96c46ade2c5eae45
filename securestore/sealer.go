package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const derivedKeyLen = 32 // AES-256

// DeriveKey stretches a passphrase into an AES key using scrypt. The salt is
// generated once per store and persisted alongside the sealed rows.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("[DeriveKey] passphrase is required")
	}
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, derivedKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "[DeriveKey] scrypt")
	}
	return key, nil
}

// Sealer seals and opens individual secret values using AES-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds an AES-GCM sealer from a raw AES key (16/24/32 bytes).
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSealer] new cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSealer] new gcm")
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts one plaintext value and returns a base64-encoded payload.
func (s *Sealer) Seal(value string) (string, error) {
	if s == nil || s.aead == nil {
		return "", errors.New("[Sealer.Seal] sealer is not configured")
	}

	// AES-GCM requires a unique nonce per encryption under the same key.
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, "[Sealer.Seal] read nonce")
	}

	ciphertext := s.aead.Seal(nil, nonce, []byte(value), nil)
	// Persist as nonce || ciphertext, encoded in raw base64 for storage.
	payload := append(nonce, ciphertext...)
	return base64.RawStdEncoding.EncodeToString(payload), nil
}

// Open decrypts one previously sealed value.
func (s *Sealer) Open(sealed string) (string, error) {
	if s == nil || s.aead == nil {
		return "", errors.New("[Sealer.Open] sealer is not configured")
	}

	payload, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(err, "[Sealer.Open] decode sealed value")
	}

	nonceSize := s.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", errors.New("[Sealer.Open] sealed value is too short")
	}
	nonce := payload[:nonceSize]
	ciphertext := payload[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, "[Sealer.Open] decrypt sealed value")
	}
	return string(plaintext), nil
}
