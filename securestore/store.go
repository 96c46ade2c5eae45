// Package securestore persists session secrets encrypted at rest, isolated
// from general application preferences. Values are sealed with AES-GCM under
// a key derived from an operator passphrase.
package securestore

import (
	"crypto/rand"
	"encoding/base64"

	pkgerrors "github.com/pkg/errors"
	"github.com/quantfold/tradekit/internal/apierrors"
	"github.com/quantfold/tradekit/users"
)

// Key namespaces. Session keys are wiped on logout; the auxiliary namespace
// (transaction PIN and friends) survives a logout, as do non-secret
// preferences which never enter this store at all.
const (
	sessionNamespace = "session/"
	auxNamespace     = "aux/"

	keyAccessToken  = sessionNamespace + "access_token"
	keyRefreshToken = sessionNamespace + "refresh_token"
	keyUserID       = sessionNamespace + "user_id"
	keyEmail        = sessionNamespace + "email"

	transactionPINKey = "transaction_pin"

	// The KDF salt is stored unsealed; it is not a secret.
	saltKey    = "meta/kdf_salt"
	saltLength = 16
)

// Store is the encrypted credential store.
type Store struct {
	repo   Repo
	sealer *Sealer
}

// Open prepares a store over repo, deriving the sealing key from passphrase.
// The scrypt salt is created on first open and reused afterwards; a wrong
// passphrase surfaces as a storage error on the first sealed read.
func Open(repo Repo, passphrase string) (*Store, error) {
	if repo == nil {
		return nil, pkgerrors.New("[securestore.Open] repo is required")
	}

	salt, err := loadOrCreateSalt(repo)
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] derive key: %v", err)
	}

	sealer, err := NewSealer(key)
	if err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] new sealer: %v", err)
	}

	return &Store{repo: repo, sealer: sealer}, nil
}

func loadOrCreateSalt(repo Repo) ([]byte, error) {
	stored, ok, err := repo.Get(saltKey)
	if err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] read salt: %v", err)
	}
	if ok {
		salt, err := base64.RawStdEncoding.DecodeString(stored)
		if err != nil {
			return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] decode salt: %v", err)
		}
		return salt, nil
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] generate salt: %v", err)
	}
	if err := repo.Upsert(saltKey, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrStorage, "[securestore.Open] persist salt: %v", err)
	}
	return salt, nil
}

// SaveUserSession stores the full session record. The refresh token is
// optional; an empty one removes any previously stored value so a stale
// token cannot be revoked twice.
func (s *Store) SaveUserSession(accessToken, refreshToken, userID, email string) error {
	if accessToken == "" {
		return apierrors.Wrapf(apierrors.ErrStorage, "[Store.SaveUserSession] access token is empty")
	}
	if err := s.writeSealed(keyAccessToken, accessToken); err != nil {
		return err
	}
	if refreshToken == "" {
		if err := s.repo.Delete(keyRefreshToken); err != nil {
			return apierrors.Wrapf(apierrors.ErrStorage, "[Store.SaveUserSession] delete refresh token: %v", err)
		}
	} else if err := s.writeSealed(keyRefreshToken, refreshToken); err != nil {
		return err
	}
	if err := s.writeSealed(keyUserID, userID); err != nil {
		return err
	}
	return s.writeSealed(keyEmail, email)
}

// SaveUserID late-binds the identity after a fallback profile fetch.
func (s *Store) SaveUserID(id string) error {
	return s.writeSealed(keyUserID, id)
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken() (string, error) { return s.readSealed(keyAccessToken) }

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken() (string, error) { return s.readSealed(keyRefreshToken) }

// UserID returns the stored user id, or "" when absent.
func (s *Store) UserID() (string, error) { return s.readSealed(keyUserID) }

// Email returns the stored email, or "" when absent.
func (s *Store) Email() (string, error) { return s.readSealed(keyEmail) }

// ClearUserData removes every session key. Auxiliary secrets and application
// preferences are untouched: this is a partial clear, not a wipe.
func (s *Store) ClearUserData() error {
	if err := s.repo.DeleteNamespace(sessionNamespace); err != nil {
		return apierrors.Wrapf(apierrors.ErrStorage, "[Store.ClearUserData] %v", err)
	}
	return nil
}

// Write stores an auxiliary secret under the given name.
func (s *Store) Write(name, value string) error {
	return s.writeSealed(auxNamespace+name, value)
}

// Read returns an auxiliary secret, or "" when absent.
func (s *Store) Read(name string) (string, error) {
	return s.readSealed(auxNamespace + name)
}

// SaveTransactionPIN hashes and stores the transaction PIN.
func (s *Store) SaveTransactionPIN(pin string) error {
	hash, err := users.HashPIN(pin)
	if err != nil {
		return apierrors.Wrapf(apierrors.ErrStorage, "[Store.SaveTransactionPIN] hash: %v", err)
	}
	return s.Write(transactionPINKey, hash)
}

// VerifyTransactionPIN checks pin against the stored hash. A store with no
// PIN set verifies nothing and reports false.
func (s *Store) VerifyTransactionPIN(pin string) (bool, error) {
	hash, err := s.Read(transactionPINKey)
	if err != nil {
		return false, err
	}
	if hash == "" {
		return false, nil
	}
	return users.CheckPINHash(pin, hash), nil
}

func (s *Store) writeSealed(key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return apierrors.Wrapf(apierrors.ErrStorage, "[Store] seal %s: %v", key, err)
	}
	if err := s.repo.Upsert(key, sealed); err != nil {
		return apierrors.Wrapf(apierrors.ErrStorage, "[Store] upsert %s: %v", key, err)
	}
	return nil
}

func (s *Store) readSealed(key string) (string, error) {
	sealed, ok, err := s.repo.Get(key)
	if err != nil {
		return "", apierrors.Wrapf(apierrors.ErrStorage, "[Store] get %s: %v", key, err)
	}
	if !ok {
		return "", nil
	}
	value, err := s.sealer.Open(sealed)
	if err != nil {
		return "", apierrors.Wrapf(apierrors.ErrStorage, "[Store] open %s: %v", key, err)
	}
	return value, nil
}
