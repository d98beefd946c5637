package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	courtmock "github.com/riskibarqy/courtsync/internal/mocks/domain/court"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPersister_CoalescesBursts(t *testing.T) {
	t.Parallel()

	repo := courtmock.NewRepository(t)
	saved := make(chan []court.Court, 4)
	repo.On("Save", mock.Anything, mock.AnythingOfType("[]court.Court")).
		Run(func(args mock.Arguments) { saved <- args.Get(1).([]court.Court) }).
		Return(nil).
		Once()

	snapshot := []court.Court{court.New(1)}
	p := newPersister(repo, 20*time.Millisecond, func() []court.Court { return snapshot }, logging.NewNop())
	defer p.Stop()

	for range 5 {
		p.Schedule()
	}

	select {
	case got := <-saved:
		assert.Equal(t, snapshot, got)
	case <-time.After(time.Second):
		t.Fatal("debounced save never ran")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, saved)
}

func TestPersister_FlushRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	repo := courtmock.NewRepository(t)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	p := newPersister(repo, time.Hour, func() []court.Court { return nil }, logging.NewNop())
	defer p.Stop()
	ctx := context.Background()

	require.NoError(t, p.Flush(ctx), "nothing dirty, nothing written")

	p.Schedule()
	require.Error(t, p.Flush(ctx))
	require.NoError(t, p.Flush(ctx))
	require.NoError(t, p.Flush(ctx))
}

func TestPersister_FailedSaveIsRetriedByTimer(t *testing.T) {
	t.Parallel()

	repo := courtmock.NewRepository(t)
	saved := make(chan struct{}, 1)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	repo.On("Save", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { saved <- struct{}{} }).
		Return(nil).
		Once()

	p := newPersister(repo, 20*time.Millisecond, func() []court.Court { return nil }, logging.NewNop())
	defer p.Stop()

	p.Schedule()

	select {
	case <-saved:
	case <-time.After(time.Second):
		t.Fatal("failed save was not retried")
	}
	require.NoError(t, p.Flush(context.Background()), "retry cleared the dirty flag")
}

func TestEngine_RestoreFromRepository(t *testing.T) {
	t.Parallel()

	repo := courtmock.NewRepository(t)
	stored := court.New(2)
	stored.Name = "Center"
	stored.Queue = []match.MatchRef{ref(8), ref(9)}
	stored.ActiveIndex = court.IntPtr(1)
	stored.Polling = true
	stored.Status = court.StatusLive
	repo.On("Load", mock.Anything).Return([]court.Court{stored}, nil).Once()

	f := newEngineFixture(t, func(_ *EngineConfig, deps *EngineDeps) { deps.Repository = repo })
	require.NoError(t, f.engine.Restore(context.Background()))

	courts := f.engine.Courts()
	require.Len(t, courts, 3)
	assert.Equal(t, []int{1, 2, 3}, f.engine.CourtIDs())
	assert.Equal(t, "Center", courts[1].Name)
	assert.Equal(t, 1, activeIndex(courts[1]))
	assert.True(t, courts[1].Polling)
	assert.Equal(t, court.StatusIdle, courts[0].Status)
}

func TestEngine_RestoreErrorIsWrapped(t *testing.T) {
	t.Parallel()

	repo := courtmock.NewRepository(t)
	boom := errors.New("relation does not exist")
	repo.On("Load", mock.Anything).Return(nil, boom).Once()

	f := newEngineFixture(t, func(_ *EngineConfig, deps *EngineDeps) { deps.Repository = repo })
	err := f.engine.Restore(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, f.engine.Courts(), 3)
}
