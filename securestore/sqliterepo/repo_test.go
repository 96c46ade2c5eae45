package sqliterepo_test

import (
	"path/filepath"
	"testing"

	"github.com/quantfold/tradekit/securestore/sqliterepo"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T) *sqliterepo.Repo {
	t.Helper()

	repo, err := sqliterepo.Open(filepath.Join(t.TempDir(), "secrets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUpsertGetDelete(t *testing.T) {
	repo := openRepo(t)

	_, ok, err := repo.Get("session/access_token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Upsert("session/access_token", "sealed-1"))

	value, ok, err := repo.Get("session/access_token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sealed-1", value)

	// Upsert replaces.
	require.NoError(t, repo.Upsert("session/access_token", "sealed-2"))
	value, _, err = repo.Get("session/access_token")
	require.NoError(t, err)
	require.Equal(t, "sealed-2", value)

	require.NoError(t, repo.Delete("session/access_token"))
	_, ok, err = repo.Get("session/access_token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteNamespace(t *testing.T) {
	repo := openRepo(t)

	require.NoError(t, repo.Upsert("session/access_token", "a"))
	require.NoError(t, repo.Upsert("session/user_id", "b"))
	require.NoError(t, repo.Upsert("aux/transaction_pin", "c"))

	require.NoError(t, repo.DeleteNamespace("session/"))

	_, ok, err := repo.Get("session/access_token")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = repo.Get("aux/transaction_pin")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.db")

	repo, err := sqliterepo.Open(path)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert("meta/kdf_salt", "salt"))
	require.NoError(t, repo.Close())

	reopened, err := sqliterepo.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("meta/kdf_salt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "salt", value)
}
