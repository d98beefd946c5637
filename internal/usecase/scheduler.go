package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type pollLoop struct {
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

func (l *pollLoop) alive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// scheduler tracks one polling loop per court. Loops only start once Run has
// provided a base context.
type scheduler struct {
	mu    sync.Mutex
	base  context.Context
	loops map[int]*pollLoop
	wg    sync.WaitGroup
}

func newScheduler() *scheduler {
	return &scheduler{loops: make(map[int]*pollLoop)}
}

func (s *scheduler) begin(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
}

func (s *scheduler) shutdown() {
	s.mu.Lock()
	for id, loop := range s.loops {
		loop.cancel()
		delete(s.loops, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *scheduler) loop(id int) (*pollLoop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loop, ok := s.loops[id]
	return loop, ok
}

// ensureLoop starts a polling loop for the court unless a live one exists.
// It reports whether a new loop was started.
func (e *Engine) ensureLoop(id int) bool {
	s := e.sched
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil || s.base.Err() != nil {
		return false
	}
	if existing, ok := s.loops[id]; ok && existing.alive() {
		return false
	}

	ctx, cancel := context.WithCancel(s.base)
	loop := &pollLoop{cancel: cancel, done: make(chan struct{}), startedAt: e.now()}
	s.loops[id] = loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		e.runLoop(ctx, id, loop)
	}()
	return true
}

func (e *Engine) stopLoop(id int) {
	s := e.sched
	s.mu.Lock()
	loop, ok := s.loops[id]
	if ok {
		delete(s.loops, id)
	}
	s.mu.Unlock()
	if ok {
		loop.cancel()
	}
}

func (e *Engine) restartLoop(id int) bool {
	e.stopLoop(id)
	return e.ensureLoop(id)
}

// runLoop ticks one court at the base interval after a per-court offset.
// Each tick runs a poll cycle unless the previous one is still in flight.
func (e *Engine) runLoop(ctx context.Context, id int, loop *pollLoop) {
	defer close(loop.done)
	defer loop.cancel()

	offset := time.Duration(id%10) * e.cfg.PollStagger
	if offset > 0 {
		timer := time.NewTimer(offset)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if !e.isPolling(id) {
			e.logger.Debug("polling loop exiting, court not polling", "court_id", id)
			return
		}
		e.tick(ctx, id, loop)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) tick(ctx context.Context, id int, loop *pollLoop) {
	e.mu.Lock()
	cs, ok := e.courts[id]
	e.mu.Unlock()
	if !ok {
		return
	}
	if !cs.inFlight.CompareAndSwap(false, true) {
		e.metrics.Poll("skipped")
		return
	}

	e.sched.wg.Add(1)
	go func() {
		defer e.sched.wg.Done()
		defer cs.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("poll cycle panicked, stopping loop",
					"court_id", id,
					"panic", fmt.Sprint(r),
				)
				loop.cancel()
			}
		}()
		e.pollCourt(ctx, id)
	}()
}

// watchdogSweep restarts loops that died or stopped polling, starts missing
// loops for polling courts and stops loops for courts that no longer poll.
func (e *Engine) watchdogSweep(ctx context.Context) {
	now := e.now()

	type courtPoll struct {
		id       int
		polling  bool
		lastPoll time.Time
	}
	e.mu.Lock()
	rows := make([]courtPoll, 0, len(e.ids))
	for _, id := range e.ids {
		c := e.courts[id].court
		row := courtPoll{id: id, polling: c.Polling}
		if c.LastPollTime != nil {
			row.lastPoll = *c.LastPollTime
		}
		rows = append(rows, row)
	}
	e.mu.Unlock()

	for _, row := range rows {
		loop, ok := e.sched.loop(row.id)
		switch {
		case !row.polling:
			if ok {
				e.stopLoop(row.id)
			}
		case !ok || !loop.alive():
			if e.restartLoop(row.id) {
				e.metrics.WatchdogRestart()
				e.logger.WarnContext(ctx, "watchdog started missing polling loop", "court_id", row.id)
			}
		default:
			last := row.lastPoll
			if loop.startedAt.After(last) {
				last = loop.startedAt
			}
			if now.Sub(last) > e.cfg.WatchdogStallThreshold {
				if e.restartLoop(row.id) {
					e.metrics.WatchdogRestart()
					e.logger.WarnContext(ctx, "watchdog restarted stalled polling loop",
						"court_id", row.id,
						"since_last_poll", now.Sub(last).String(),
					)
				}
			}
		}
	}
}
