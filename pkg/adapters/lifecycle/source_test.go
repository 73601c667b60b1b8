package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/core"
)

func TestSource_ForwardsMatchingKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	src := NewSource(in, core.Board.Key())
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Key: core.Journal.Key()}
	in <- core.Event{Type: core.EventModify, Key: core.Board.Key()}
	close(in)

	select {
	case e, ok := <-src.Events():
		require.True(t, ok)
		assert.Equal(t, "MODIFY "+core.Board.Key(), e.String())
	case <-time.After(time.Second):
		t.Fatal("no event forwarded")
	}

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes with the input")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-src.Events():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
