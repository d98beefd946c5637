package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_SkipsWhileCycleInFlight(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1))
	f.source.set(matchURL(1), payloadPreMatch)

	f.engine.mu.Lock()
	cs := f.engine.courts[1]
	f.engine.mu.Unlock()
	cs.inFlight.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := &pollLoop{cancel: cancel, done: make(chan struct{})}
	f.engine.tick(ctx, 1, loop)
	f.engine.sched.wg.Wait()
	assert.Zero(t, f.source.count(matchURL(1)))

	cs.inFlight.Store(false)
	f.engine.tick(ctx, 1, loop)
	f.engine.sched.wg.Wait()
	assert.Equal(t, 1, f.source.count(matchURL(1)))
	assert.False(t, cs.inFlight.Load())
}

func TestTick_PanicStopsLoopAndReleasesCourt(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1))
	f.source.panicOn = matchURL(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := &pollLoop{cancel: cancel, done: make(chan struct{})}

	require.NotPanics(t, func() {
		f.engine.tick(ctx, 1, loop)
		f.engine.sched.wg.Wait()
	})
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	f.engine.mu.Lock()
	inFlight := f.engine.courts[1].inFlight.Load()
	f.engine.mu.Unlock()
	assert.False(t, inFlight)
}

func TestWatchdog_ManagesLoops(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, func(cfg *EngineConfig, _ *EngineDeps) {
		// keep loops parked in their start offset so only the watchdog acts
		cfg.PollStagger = time.Hour
	})
	f.queue(t, 1, ref(1))
	f.source.set(matchURL(1), payloadPreMatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		f.engine.sched.shutdown()
	}()
	f.engine.sched.begin(ctx)

	f.engine.watchdogSweep(ctx)
	first, ok := f.engine.sched.loop(1)
	require.True(t, ok, "missing loop for a polling court is started")
	require.True(t, first.alive())

	f.engine.watchdogSweep(ctx)
	same, _ := f.engine.sched.loop(1)
	assert.Same(t, first, same, "a fresh loop is left alone")

	f.clock.Advance(31 * time.Second)
	f.engine.watchdogSweep(ctx)
	restarted, ok := f.engine.sched.loop(1)
	require.True(t, ok)
	assert.NotSame(t, first, restarted, "a stalled loop is restarted")
	assert.Eventually(t, func() bool { return !first.alive() }, time.Second, 5*time.Millisecond)

	_, err := f.engine.Stop(ctx, 1)
	require.NoError(t, err)
	f.engine.watchdogSweep(ctx)
	_, ok = f.engine.sched.loop(1)
	assert.False(t, ok)
}

func TestRun_PollsUntilCanceled(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, func(cfg *EngineConfig, _ *EngineDeps) {
		cfg.PollInterval = 5 * time.Millisecond
		cfg.PollStagger = time.Millisecond
	})
	f.queue(t, 1, ref(1))
	f.source.set(matchURL(1), teamPairPayload([2]int{2, 0}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.engine.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return f.court(t, 1).Status == court.StatusLive
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	_, ok := f.engine.sched.loop(1)
	assert.False(t, ok)
}
