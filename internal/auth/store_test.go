package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileIsUnauthenticated(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	require.False(t, store.Authed())
	require.Empty(t, store.Token())
}

func TestSetTokenPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "echo", "token")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok-123"))
	require.True(t, store.Authed())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "tok-123", reloaded.Token())
}

func TestInvalidateClearsMemoryAndDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok-123"))

	store.Invalidate()
	require.False(t, store.Authed())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestDefaultPathHonorsXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/custom-state")
	path, err := DefaultPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-state/echo/token", path)
}
