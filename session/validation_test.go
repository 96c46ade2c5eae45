package session_test

import (
	"testing"

	"github.com/quantfold/tradekit/internal/apierrors"
	"github.com/quantfold/tradekit/session"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "user@test.com", false},
		{"valid with plus", "user+tag@test.com", false},
		{"surrounding whitespace", "  user@test.com  ", false},
		{"empty", "", true},
		{"no at sign", "not-an-email", true},
		{"no domain dot", "user@localhost", true},
		{"display name form", "User <user@test.com>", true},
		{"double at", "user@@test.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, apierrors.IsValidation(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}
