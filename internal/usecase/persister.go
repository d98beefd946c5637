package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
)

const persistTimeout = 10 * time.Second

// persister coalesces bursts of court mutations into one repository write.
type persister struct {
	repo     court.Repository
	debounce time.Duration
	snapshot func() []court.Court
	logger   *logging.Logger

	mu      sync.Mutex
	timer   *time.Timer
	dirty   bool
	stopped bool
	writeMu sync.Mutex
}

func newPersister(repo court.Repository, debounce time.Duration, snapshot func() []court.Court, logger *logging.Logger) *persister {
	return &persister{
		repo:     repo,
		debounce: debounce,
		snapshot: snapshot,
		logger:   logger,
	}
}

// Schedule marks state dirty and arms the debounce timer if it is not
// already running. Safe to call while holding the engine lock.
func (p *persister) Schedule() {
	if p.repo == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.dirty = true
	p.armLocked()
}

// armLocked starts the debounce timer unless one is pending. p.mu must be held.
func (p *persister) armLocked() {
	if p.stopped || p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := p.Flush(ctx); err != nil {
			p.logger.Error("persist courts failed", "error", err)
		}
	})
}

// Flush writes pending state immediately. A failed write leaves the state
// dirty and re-arms the timer so the next attempt does not wait for another
// mutation.
func (p *persister) Flush(ctx context.Context) error {
	if p.repo == nil {
		return nil
	}
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	dirty := p.dirty
	p.dirty = false
	p.mu.Unlock()

	if !dirty {
		return nil
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.repo.Save(ctx, p.snapshot()); err != nil {
		p.mu.Lock()
		p.dirty = true
		p.armLocked()
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *persister) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
