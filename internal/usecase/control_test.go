package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_Validation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Start(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrCourtNotFound)

	_, err = f.engine.Start(ctx, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestStart_IsIdempotentAndClearsError(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1))
	f.source.fail(matchURL(1), errors.New("timeout"))
	ctx := context.Background()

	f.engine.PollOnce(ctx, 1)
	require.NotEmpty(t, f.court(t, 1).ErrorMessage)

	c, err := f.engine.Start(ctx, 1)
	require.NoError(t, err)
	assert.True(t, c.Polling)
	assert.Empty(t, c.ErrorMessage)
	assert.Equal(t, 0, activeIndex(c))
	assert.Equal(t, court.StatusWaiting, c.Status)
}

func TestStop_DiscardsTracking(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1))
	f.source.set(matchURL(1), teamPairPayload([2]int{3, 3}))
	ctx := context.Background()
	f.engine.PollOnce(ctx, 1)

	c, err := f.engine.Stop(ctx, 1)
	require.NoError(t, err)
	assert.False(t, c.Polling)
	assert.Equal(t, court.StatusIdle, c.Status)
	assert.Nil(t, c.Snapshot)
	assert.Nil(t, c.LiveSince)
	assert.Equal(t, 0, activeIndex(c))
}

func TestSkip_ClampsAndFollowsPollingFlag(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1), ref(2))
	ctx := context.Background()

	c, err := f.engine.Previous(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, activeIndex(c))

	c, err = f.engine.Next(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, activeIndex(c))
	assert.Equal(t, court.StatusWaiting, c.Status)

	c, err = f.engine.Next(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, activeIndex(c))
	assert.Len(t, eventsWithReason(f.changes(t, 1), court.ReasonManualSkip), 1)

	_, err = f.engine.Stop(ctx, 1)
	require.NoError(t, err)
	c, err = f.engine.Previous(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, activeIndex(c))
	assert.Equal(t, court.StatusIdle, c.Status)

	_, err = f.engine.Next(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceQueue_ResetsCourt(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1))
	f.source.set(matchURL(1), teamPairPayload([2]int{5, 7}))
	ctx := context.Background()
	f.engine.PollOnce(ctx, 1)
	require.Equal(t, court.StatusLive, f.court(t, 1).Status)

	c, err := f.engine.ReplaceQueue(ctx, 1, []match.MatchRef{ref(4), ref(5)})
	require.NoError(t, err)
	assert.Equal(t, court.StatusIdle, c.Status)
	assert.False(t, c.Polling)
	assert.Nil(t, c.Snapshot)
	assert.Nil(t, c.LiveSince)
	assert.Equal(t, 0, activeIndex(c))
	assert.Len(t, c.Queue, 2)

	_, err = f.engine.ReplaceQueue(ctx, 1, []match.MatchRef{{URL: "not a url"}})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidMatchRef)
	assert.Len(t, f.court(t, 1).Queue, 2)
}

func TestAppendAndClearQueue(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	c, err := f.engine.AppendQueue(ctx, 2, []match.MatchRef{ref(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, activeIndex(c))

	f.source.set(matchURL(1), teamPairPayload([2]int{1, 1}))
	_, err = f.engine.Start(ctx, 2)
	require.NoError(t, err)
	f.engine.PollOnce(ctx, 2)

	c, err = f.engine.AppendQueue(ctx, 2, []match.MatchRef{ref(2)})
	require.NoError(t, err)
	assert.Equal(t, 0, activeIndex(c))
	assert.Equal(t, court.StatusLive, c.Status)
	assert.Len(t, c.Queue, 2)

	c, err = f.engine.ClearQueue(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, c.Queue)
	assert.Nil(t, c.ActiveIndex)
	assert.Equal(t, court.StatusIdle, c.Status)
	assert.False(t, c.Polling)
}

func TestRename(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	c, err := f.engine.Rename(ctx, 3, "  Stadium Court ")
	require.NoError(t, err)
	assert.Equal(t, "Stadium Court", c.Name)

	_, err = f.engine.Rename(ctx, 3, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStartAll_SkipsEmptyCourts(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()
	_, err := f.engine.ReplaceQueue(ctx, 2, []match.MatchRef{ref(1)})
	require.NoError(t, err)

	assert.Equal(t, []int{2}, f.engine.StartAll(ctx))
	f.engine.StopAll(ctx)
	for _, c := range f.engine.Courts() {
		assert.False(t, c.Polling)
	}
}
