package resonance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/adapters/memory"
	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/metrics"
	"github.com/aretw0/dusk/pkg/resonance"
	"github.com/aretw0/dusk/pkg/store"
)

func setup(t *testing.T) (*store.Store, *memory.Storage, core.BoardMessage) {
	t.Helper()
	mem := memory.New()
	s := store.New(mem)
	msg, err := s.AppendMessage(context.Background(), "hello")
	require.NoError(t, err)
	return s, mem, msg
}

func TestTracker_ReactOncePerViewer(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)
	tr := resonance.NewTracker(s)

	first, applied, err := tr.React(ctx, msg)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, first.ResonanceCount)
	assert.True(t, first.HasResonated)

	second, applied, err := tr.React(ctx, first)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, second.ResonanceCount)
	assert.True(t, second.HasResonated)

	stored := s.ListMessages(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].ResonanceCount, "exactly one increment persisted")
}

func TestTracker_StaleCopyCannotDoubleCount(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)
	tr := resonance.NewTracker(s)

	_, _, err := tr.React(ctx, msg)
	require.NoError(t, err)
	// msg still says HasResonated=false; the tracker must not trust it.
	_, applied, err := tr.React(ctx, msg)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, s.ListMessages(ctx)[0].ResonanceCount)
}

func TestTracker_DistinctViewers(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)

	alice := resonance.NewTracker(s)
	bob := resonance.NewTracker(s)

	_, _, err := alice.React(ctx, msg)
	require.NoError(t, err)
	updated, applied, err := bob.React(ctx, msg)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, updated.ResonanceCount)
}

func TestTracker_Synthetic(t *testing.T) {
	ctx := context.Background()
	s, mem, _ := setup(t)
	m := metrics.New(nil)
	tr := resonance.NewTracker(s, resonance.WithMetrics(m))

	before, err := mem.Get(ctx, core.Board.Key())
	require.NoError(t, err)

	filler := core.BoardMessage{
		ID:             "filler_abc",
		Content:        "the stars are gentle tonight",
		ResonanceCount: 7,
		CreatedAt:      time.Now(),
		Origin:         core.OriginSynthetic,
	}

	updated, applied, err := tr.React(ctx, filler)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 8, updated.ResonanceCount)
	assert.True(t, updated.HasResonated)

	after, err := mem.Get(ctx, core.Board.Key())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "synthetic resonance is not persisted")

	_, applied, err = tr.React(ctx, updated)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResonanceCounter("synthetic")))
}

func TestTracker_SyntheticAndRealWithSameID(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)
	tr := resonance.NewTracker(s)

	lookalike := msg
	lookalike.Origin = core.OriginSynthetic

	_, applied, err := tr.React(ctx, lookalike)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, tr.HasResonated(core.Real(msg.ID)))
	assert.Zero(t, s.ListMessages(ctx)[0].ResonanceCount)
}

func TestTracker_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown Message", func(t *testing.T) {
		s, _, _ := setup(t)
		tr := resonance.NewTracker(s)

		_, applied, err := tr.React(ctx, core.BoardMessage{ID: "gone"})
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.False(t, applied)
		assert.False(t, tr.HasResonated(core.Real("gone")))
	})

	t.Run("Storage Fault Allows Retry", func(t *testing.T) {
		s, mem, msg := setup(t)
		tr := resonance.NewTracker(s)

		mem.FailSet(errors.New("quota exceeded"))
		_, applied, err := tr.React(ctx, msg)
		assert.ErrorIs(t, err, core.ErrStorage)
		assert.False(t, applied)
		assert.False(t, tr.HasResonated(msg.Ref()))

		mem.FailSet(nil)
		updated, applied, err := tr.React(ctx, msg)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 1, updated.ResonanceCount)
	})
}

func TestTracker_ConcurrentCallsIncrementOnce(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)
	tr := resonance.NewTracker(s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = tr.React(ctx, msg)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.ListMessages(ctx)[0].ResonanceCount)
}

func TestTracker_AnnotateAndForget(t *testing.T) {
	ctx := context.Background()
	s, _, msg := setup(t)
	tr := resonance.NewTracker(s)

	other, err := s.AppendMessage(ctx, "another")
	require.NoError(t, err)

	_, _, err = tr.React(ctx, msg)
	require.NoError(t, err)

	input := s.ListMessages(ctx)
	annotated := tr.Annotate(input)
	require.Len(t, annotated, 2)
	for _, m := range annotated {
		assert.Equal(t, m.ID == msg.ID, m.HasResonated, m.ID)
	}
	assert.False(t, input[0].HasResonated, "input is not modified")
	assert.False(t, tr.HasResonated(other.Ref()))

	tr.Forget()
	assert.False(t, tr.HasResonated(msg.Ref()))
}
