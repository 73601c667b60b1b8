package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/core"
)

func waitForEvent(t *testing.T, events <-chan core.Event, key string) core.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "channel closed before %s", key)
			if e.Key == key {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event on %s", key)
		}
	}
}

func TestWatch(t *testing.T) {
	t.Run("Reports Writes From Another Writer", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestStorage(t)

		events, err := s.Watch(ctx, "*")
		require.NoError(t, err)

		other := New(Config{Path: s.Path})
		require.NoError(t, other.Set(ctx, "twilight-messages", []byte("[]")))

		e := waitForEvent(t, events, "twilight-messages")
		assert.NotEmpty(t, e.Type)
		assert.NotZero(t, e.Timestamp)
	})

	t.Run("Reports Deletes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestStorage(t)
		require.NoError(t, s.Set(ctx, "echo-archives", []byte("[]")))

		events, err := s.Watch(ctx, "echo-*")
		require.NoError(t, err)

		require.NoError(t, os.Remove(filepath.Join(s.Path, "echo-archives.json")))
		e := waitForEvent(t, events, "echo-archives")
		assert.Equal(t, core.EventDelete, e.Type)
	})

	t.Run("Applies Pattern And Ignores Foreign Files", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestStorage(t)

		events, err := s.Watch(ctx, "twilight-*")
		require.NoError(t, err)

		other := New(Config{Path: s.Path})
		require.NoError(t, other.Set(ctx, "echo-archives", []byte("[]")))
		require.NoError(t, os.WriteFile(filepath.Join(s.Path, "notes.txt"), []byte("x"), 0o644))
		require.NoError(t, other.Set(ctx, "twilight-messages", []byte("[]")))

		e := waitForEvent(t, events, "twilight-messages")
		assert.Equal(t, "twilight-messages", e.Key)

		select {
		case e := <-events:
			assert.Equal(t, "twilight-messages", e.Key, "only matching keys are reported")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Debounces Bursts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := New(Config{Path: t.TempDir(), Debounce: 200 * time.Millisecond})
		require.NoError(t, s.Initialize(ctx))

		events, err := s.Watch(ctx, "*")
		require.NoError(t, err)

		other := New(Config{Path: s.Path})
		for i := range 5 {
			require.NoError(t, other.Set(ctx, "burst", []byte(fmt.Sprintf("[%d]", i))))
		}
		waitForEvent(t, events, "burst")

		select {
		case e := <-events:
			t.Fatalf("unexpected second event %v", e)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Skips Own Writes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestStorage(t)
		require.NoError(t, s.Set(ctx, "user-preferences", []byte("{}")))

		events, err := s.Watch(ctx, "*")
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "twilight-messages", []byte(`[{"id":"a"}]`)))
		require.NoError(t, s.Remove(ctx, "user-preferences"))
		assert.Eventually(t, func() bool { return s.State().(StorageState).Suppressed >= 2 }, 3*time.Second, 5*time.Millisecond)

		other := New(Config{Path: s.Path})
		require.NoError(t, other.Set(ctx, "echo-archives", []byte("[]")))

		select {
		case e := <-events:
			assert.Equal(t, "echo-archives", e.Key, "own writes are not reported")
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for the foreign write")
		}
	})

	t.Run("Reports Foreign Overwrite Of Own Key", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newTestStorage(t)

		events, err := s.Watch(ctx, "*")
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "twilight-messages", []byte("[]")))
		other := New(Config{Path: s.Path})
		require.NoError(t, other.Set(ctx, "twilight-messages", []byte(`[{"id":"b"}]`)))

		waitForEvent(t, events, "twilight-messages")
	})

	t.Run("Closes On Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := newTestStorage(t)

		events, err := s.Watch(ctx, "*")
		require.NoError(t, err)
		assert.Eventually(t, func() bool { return s.State().(StorageState).Watchers == 1 }, time.Second, 5*time.Millisecond)

		cancel()
		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, 3*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return s.State().(StorageState).Watchers == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Rejects Bad Pattern", func(t *testing.T) {
		s := newTestStorage(t)
		_, err := s.Watch(context.Background(), "[unclosed")
		assert.Error(t, err)
	})
}
