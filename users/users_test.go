package users_test

import (
	"testing"
	"time"

	"github.com/quantfold/tradekit/users"
	"github.com/stretchr/testify/require"
)

func TestProfileFromMap(t *testing.T) {
	p := users.ProfileFromMap(map[string]any{
		"id":                 "u1",
		"email":              "john.doe@example.com",
		"full_name":          "John Doe",
		"balance":            float64(1250.5),
		"is_premium":         true,
		"premium_expires_at": "2026-12-31T00:00:00Z",
	})

	require.Equal(t, "u1", p.ID)
	require.Equal(t, "john.doe@example.com", p.Email)
	require.Equal(t, "John Doe", p.FullName)
	require.Equal(t, 1250.5, p.Balance)
	require.True(t, p.IsPremium)
	require.NotNil(t, p.PremiumExpiresAt)
	require.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *p.PremiumExpiresAt)
}

func TestProfileFromMapFallbackKeys(t *testing.T) {
	p := users.ProfileFromMap(map[string]any{
		"user_id": "u2",
		"name":    "Jane",
	})
	require.Equal(t, "u2", p.ID)
	require.Equal(t, "Jane", p.FullName)
}

func TestProfileFromMapMissingFields(t *testing.T) {
	p := users.ProfileFromMap(map[string]any{})
	require.Empty(t, p.ID)
	require.Zero(t, p.Balance)
	require.False(t, p.IsPremium)
	require.Nil(t, p.PremiumExpiresAt)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Ab1", true},
		{"no uppercase", "secret123", true},
		{"no lowercase", "SECRET123", true},
		{"no number", "SecretPass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPINHashRoundTrip(t *testing.T) {
	hash, err := users.HashPIN("4821")
	require.NoError(t, err)
	require.NotEqual(t, "4821", hash)
	require.True(t, users.CheckPINHash("4821", hash))
	require.False(t, users.CheckPINHash("0000", hash))
}
