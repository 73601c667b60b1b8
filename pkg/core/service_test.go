package core_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dusk/pkg/adapters/memory"
	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/filler"
	"github.com/aretw0/dusk/pkg/resonance"
	"github.com/aretw0/dusk/pkg/store"
	"github.com/aretw0/dusk/pkg/window"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	svc     *core.Service
	storage *memory.Storage
	clock   *clock
	records *store.Store
}

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()
	c := &clock{now: at}
	mem := memory.New()
	records := store.New(mem, store.WithClock(c))

	svc := core.NewService(core.Components{
		Records:     records,
		Reactor:     resonance.NewTracker(records),
		Oracle:      window.Default,
		Filler:      filler.New(filler.WithSeed(1), filler.WithClock(c)),
		Clock:       c,
		FillerCount: filler.DefaultCount,
		FeedLimit:   filler.FeedLimit,
		Retention:   store.RetentionHorizon,
		Closer:      mem,
	})
	return &fixture{svc: svc, storage: mem, clock: c, records: records}
}

var evening = time.Date(2026, time.October, 18, 20, 0, 0, 0, time.Local)

func TestService_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, evening)
	svc := f.svc

	msgs := svc.ListMessages(ctx)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	hello, err := svc.SubmitMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, hello.ResonanceCount)

	listed := svc.ListMessages(ctx)
	require.Len(t, listed, 1)

	once, changed, err := svc.ReactToMessage(ctx, listed[0])
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, once.ResonanceCount)
	assert.True(t, once.HasResonated)

	twice, changed, err := svc.ReactToMessage(ctx, svc.ListMessages(ctx)[0])
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, twice.ResonanceCount)
	assert.True(t, twice.HasResonated)

	after := svc.ListMessages(ctx)
	require.Len(t, after, 1)
	assert.Equal(t, 1, after[0].ResonanceCount)
	assert.True(t, after[0].HasResonated, "listing is annotated for this viewer")

	_, err = svc.SubmitMessage(ctx, strings.Repeat("x", 51))
	assert.ErrorIs(t, err, core.ErrContentTooLong)
	assert.Len(t, svc.ListMessages(ctx), 1, "store unchanged")
}

func TestService_Journal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, evening)
	svc := f.svc

	entry, err := svc.ArchiveEntry(ctx, "  today the sky was orange  ")
	require.NoError(t, err)
	assert.Equal(t, "today the sky was orange", entry.Content)
	assert.True(t, entry.IsArchived)

	_, err = svc.ArchiveEntry(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	require.Len(t, svc.ListEntries(ctx), 1)

	require.NoError(t, svc.DeleteEntry(ctx, ""), "an empty id matches nothing")
	require.NoError(t, svc.DeleteEntry(ctx, "unknown"))
	require.Len(t, svc.ListEntries(ctx), 1)
	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))
	assert.Empty(t, svc.ListEntries(ctx))
}

func TestService_ClosedBoard(t *testing.T) {
	ctx := context.Background()
	noon := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.Local)
	f := newFixture(t, noon)
	svc := f.svc

	assert.False(t, svc.IsBoardOpen())
	assert.Equal(t, time.Date(2026, time.October, 18, 19, 0, 0, 0, time.Local), svc.NextOpenTime())

	_, err := svc.SubmitMessage(ctx, "too early")
	assert.ErrorIs(t, err, core.ErrBoardClosed)
	assert.Empty(t, f.storage.Keys(), "nothing written while closed")

	_, err = svc.Feed(ctx)
	assert.ErrorIs(t, err, core.ErrBoardClosed)

	_, err = svc.ArchiveEntry(ctx, "the journal never closes")
	assert.NoError(t, err)
}

func TestService_Feed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, evening)
	svc := f.svc

	feed, err := svc.Feed(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, filler.DefaultCount)

	for i := range 10 {
		_, err := svc.SubmitMessage(ctx, strings.Repeat("m", i+1))
		require.NoError(t, err)
	}
	feed, err = svc.Feed(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, filler.FeedLimit)

	var synthetic int
	for _, m := range feed {
		if m.Ref().IsSynthetic() {
			synthetic++
			_, changed, err := svc.ReactToMessage(ctx, m)
			require.NoError(t, err)
			assert.True(t, changed)
		}
	}
	assert.Positive(t, synthetic)

	for _, m := range svc.ListMessages(ctx) {
		assert.Zero(t, m.ResonanceCount, "synthetic resonance never touches storage")
	}
}

func TestService_Generate(t *testing.T) {
	f := newFixture(t, evening)
	msgs := f.svc.GenerateFillerMessages(3)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.True(t, m.Ref().IsSynthetic())
	}
}

func TestService_PruneMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, evening)
	svc := f.svc

	_, err := svc.SubmitMessage(ctx, "old")
	require.NoError(t, err)

	f.clock.now = evening.Add(store.RetentionHorizon)
	_, err = svc.SubmitMessage(ctx, "new")
	require.NoError(t, err)

	n, err := svc.PruneMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "exactly at the boundary is retained")

	f.clock.now = f.clock.now.Add(time.Millisecond)
	n, err = svc.PruneMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs := svc.ListMessages(ctx)
	require.Len(t, msgs, 1)
	assert.Equal(t, "new", msgs[0].Content)
}

func TestService_ExportAndWipe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, evening)
	svc := f.svc

	_, err := svc.ArchiveEntry(ctx, "entry")
	require.NoError(t, err)
	_, err = svc.SubmitMessage(ctx, "message")
	require.NoError(t, err)

	snap, err := svc.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.SnapshotVersion, snap.Version)
	assert.Len(t, snap.JournalEntries, 1)
	assert.Len(t, snap.BoardMessages, 1)

	stats := svc.Statistics(ctx)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.TotalMessages)

	synthetic := svc.GenerateFillerMessages(1)[0]
	_, changed, err := svc.ReactToMessage(ctx, synthetic)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, svc.WipeAll(ctx))
	assert.Empty(t, f.storage.Keys())
	assert.Empty(t, svc.ListEntries(ctx))

	_, changed, err = svc.ReactToMessage(ctx, synthetic)
	require.NoError(t, err)
	assert.True(t, changed, "wipe clears the viewer history")
}

func TestService_WatchAndClose(t *testing.T) {
	f := newFixture(t, evening)
	svc := f.svc

	assert.False(t, svc.CanWatch())
	_, err := svc.Watch(context.Background(), "*")
	assert.Error(t, err)

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
	assert.True(t, svc.State().(core.ServiceState).Closed)
}

func TestService_State(t *testing.T) {
	f := newFixture(t, evening)
	state := f.svc.State().(core.ServiceState)

	assert.Equal(t, "store", state.RecordStoreType)
	assert.True(t, state.BoardOpen)
	assert.Equal(t, evening.Add(23*time.Hour), state.NextOpen)
	assert.Equal(t, filler.DefaultCount, state.FillerCount)
	assert.Equal(t, store.RetentionHorizon, state.Retention)
	assert.Equal(t, "service", f.svc.ComponentType())
}
