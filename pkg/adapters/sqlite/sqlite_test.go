package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/core"
)

func openTest(t *testing.T, path string) *Storage {
	t.Helper()
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, filepath.Join(t.TempDir(), "dusk.db"))

	_, err := s.Get(ctx, "echo-archives")
	assert.ErrorIs(t, err, core.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "echo-archives", []byte("[]")))
	require.NoError(t, s.Set(ctx, "echo-archives", []byte(`[{"id":"e"}]`)), "set replaces")

	got, err := s.Get(ctx, "echo-archives")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"e"}]`, string(got))

	require.NoError(t, s.Set(ctx, "user-preferences", nil))
	got, err = s.Get(ctx, "user-preferences")
	require.NoError(t, err)
	assert.Empty(t, got)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo-archives", "user-preferences"}, keys)

	require.NoError(t, s.Remove(ctx, "echo-archives"))
	require.NoError(t, s.Remove(ctx, "echo-archives"))
	_, err = s.Get(ctx, "echo-archives")
	assert.ErrorIs(t, err, core.ErrKeyNotFound)
}

func TestStorage_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dusk.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "twilight-messages", []byte("[1]")))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(ctx, "twilight-messages")
	assert.Error(t, err)

	reopened := openTest(t, path)
	got, err := reopened.Get(ctx, "twilight-messages")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
	assert.Equal(t, "sqlite", reopened.ComponentType())
	assert.False(t, reopened.State().(StorageState).Closed)
}

func TestStorage_InvalidKey(t *testing.T) {
	s := openTest(t, filepath.Join(t.TempDir(), "dusk.db"))
	_, err := s.Get(context.Background(), "../x")
	assert.ErrorIs(t, err, core.ErrInvalidKey)
}
