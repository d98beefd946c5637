package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	usecasemock "github.com/riskibarqy/courtsync/internal/mocks/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEvents_DeliveredToNotifier(t *testing.T) {
	t.Parallel()

	notifier := usecasemock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e court.Event) bool {
		return e.Reason == court.ReasonQueueReplaced && e.CourtID == 1 && e.CourtName == "Court 1"
	})).Return(nil).Once()
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e court.Event) bool {
		return e.Reason == court.ReasonManualSkip && e.MatchNumber == 2 && !e.OccurredAt.IsZero()
	})).Return(nil).Once()

	f := newEngineFixture(t, func(_ *EngineConfig, deps *EngineDeps) { deps.Notifier = notifier })
	ctx := context.Background()
	_, err := f.engine.ReplaceQueue(ctx, 1, []match.MatchRef{ref(1), ref(2)})
	require.NoError(t, err)
	_, err = f.engine.Next(ctx, 1)
	require.NoError(t, err)

	f.engine.Close()
}

func TestChangeLog_IsBounded(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	f := newEngineFixture(t, func(cfg *EngineConfig, deps *EngineDeps) {
		cfg.ChangeLogSize = 3
		deps.Notifier = notifier
	})
	ctx := context.Background()
	_, err := f.engine.ReplaceQueue(ctx, 1, []match.MatchRef{ref(1), ref(2)})
	require.NoError(t, err)
	for range 3 {
		_, err = f.engine.Next(ctx, 1)
		require.NoError(t, err)
		_, err = f.engine.Previous(ctx, 1)
		require.NoError(t, err)
	}

	events := f.changes(t, 1)
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, court.ReasonManualSkip, e.Reason)
	}
	assert.Equal(t, 1, events[2].MatchNumber)

	_, err = f.engine.ChangeLog(9)
	assert.ErrorIs(t, err, ErrNotFound)

	f.engine.Close()
	assert.Len(t, notifier.snapshot(), 7)
}
