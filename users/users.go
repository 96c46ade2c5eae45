package users

import (
	"fmt"
	"time"
	"unicode"

	"github.com/quantfold/tradekit/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the richer identity fetched after authentication. It lives for
// the current process only; the minimal fields cached as part of the session
// are the secure store's concern.
type Profile struct {
	ID               string     `json:"id,omitempty"`
	Email            string     `json:"email,omitempty"`
	FullName         string     `json:"full_name,omitempty"`
	Balance          float64    `json:"balance,omitempty"`
	IsPremium        bool       `json:"is_premium,omitempty"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at,omitempty"`
}

// ProfileFromMap decodes a loosely-typed backend payload into a Profile.
// Every field access has a fallback default: the backend contract does not
// promise any field is present, and profile reads are best-effort.
func ProfileFromMap(m map[string]any) Profile {
	p := Profile{
		ID:        str(m, "id", "user_id"),
		Email:     str(m, "email"),
		FullName:  str(m, "full_name", "name"),
		Balance:   float(m, "balance"),
		IsPremium: boolean(m, "is_premium"),
	}
	if raw := str(m, "premium_expires_at"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			p.PremiumExpiresAt = utils.Ptr(ts)
		}
	}
	return p
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func float(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// HashPIN hashes a transaction PIN for at-rest storage.
func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPINHash checks a transaction PIN against its stored hash.
func CheckPINHash(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}
