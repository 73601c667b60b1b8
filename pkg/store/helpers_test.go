package store_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/adapters/memory"
	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/store"
)

// fakeClock is a settable core.Clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var evening = time.Date(2026, time.October, 18, 20, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...store.Option) (*store.Store, *memory.Storage, *fakeClock) {
	t.Helper()
	mem := memory.New()
	clock := newFakeClock(evening)
	opts = append([]store.Option{store.WithClock(clock)}, opts...)
	return store.New(mem, opts...), mem, clock
}

func seed(t *testing.T, mem *memory.Storage, c core.Collection, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, mem.Set(context.Background(), c.Key(), data))
}

func raw(t *testing.T, mem *memory.Storage, c core.Collection) string {
	t.Helper()
	data, err := mem.Get(context.Background(), c.Key())
	require.NoError(t, err)
	return string(data)
}
