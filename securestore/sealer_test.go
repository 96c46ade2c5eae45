package securestore_test

import (
	"testing"

	"github.com/quantfold/tradekit/securestore"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := securestore.DeriveKey("passphrase", []byte("0123456789abcdef"))
	require.NoError(t, err)

	sealer, err := securestore.NewSealer(key)
	require.NoError(t, err)

	sealed, err := sealer.Seal("super-secret-token")
	require.NoError(t, err)
	require.NotEqual(t, "super-secret-token", sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "super-secret-token", opened)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	salt := []byte("0123456789abcdef")

	rightKey, err := securestore.DeriveKey("right", salt)
	require.NoError(t, err)
	wrongKey, err := securestore.DeriveKey("wrong", salt)
	require.NoError(t, err)

	sealer, err := securestore.NewSealer(rightKey)
	require.NoError(t, err)
	sealed, err := sealer.Seal("value")
	require.NoError(t, err)

	other, err := securestore.NewSealer(wrongKey)
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.Error(t, err)
}

func TestDeriveKeyRequiresPassphrase(t *testing.T) {
	_, err := securestore.DeriveKey("", []byte("salt"))
	require.Error(t, err)
}

func TestOpenGarbageFails(t *testing.T) {
	key, err := securestore.DeriveKey("passphrase", []byte("salt-salt-salt-s"))
	require.NoError(t, err)
	sealer, err := securestore.NewSealer(key)
	require.NoError(t, err)

	_, err = sealer.Open("not base64!!")
	require.Error(t, err)

	_, err = sealer.Open("c2hvcnQ")
	require.Error(t, err)
}
