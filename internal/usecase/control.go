package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
)

func (e *Engine) lockedCourt(id int) (*courtState, error) {
	cs, ok := e.courts[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrCourtNotFound, id)
	}
	return cs, nil
}

// Start begins polling a court. Starting a court that is already polling only
// clears its error message.
func (e *Engine) Start(ctx context.Context, id int) (court.Court, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.Start", courtAttr(id))
	defer span.End()

	e.mu.Lock()
	cs, err := e.lockedCourt(id)
	if err != nil {
		e.mu.Unlock()
		return court.Court{}, err
	}
	c := &cs.court
	if len(c.Queue) == 0 {
		e.mu.Unlock()
		return court.Court{}, fmt.Errorf("%w: court %d", ErrEmptyQueue, id)
	}

	c.ErrorMessage = ""
	alreadyPolling := c.Polling
	if !alreadyPolling {
		if c.ActiveIndex == nil {
			c.ActiveIndex = court.IntPtr(0)
		}
		c.Polling = true
		if c.Status == court.StatusIdle {
			c.Status = court.StatusWaiting
		}
		e.persist.Schedule()
	}
	out := c.Clone()
	e.mu.Unlock()

	e.ensureLoop(id)
	if !alreadyPolling {
		e.logger.InfoContext(ctx, "court polling started", "court_id", id)
	}
	return out, nil
}

// Stop halts polling and discards the court's per-match tracking. An
// in-flight cycle for the court is discarded when it returns.
func (e *Engine) Stop(ctx context.Context, id int) (court.Court, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.Stop", courtAttr(id))
	defer span.End()

	e.mu.Lock()
	cs, err := e.lockedCourt(id)
	if err != nil {
		e.mu.Unlock()
		return court.Court{}, err
	}
	wasPolling := cs.court.Polling
	cs.resetMatchState()
	cs.court.Polling = false
	cs.court.Status = court.StatusIdle
	out := cs.court.Clone()
	e.persist.Schedule()
	e.mu.Unlock()

	e.stopLoop(id)
	if wasPolling {
		e.logger.InfoContext(ctx, "court polling stopped", "court_id", id)
	}
	return out, nil
}

// StartAll starts every court with a non-empty queue and returns the ids
// started.
func (e *Engine) StartAll(ctx context.Context) []int {
	var started []int
	for _, id := range e.CourtIDs() {
		c, err := e.Court(id)
		if err != nil || len(c.Queue) == 0 {
			continue
		}
		if _, err := e.Start(ctx, id); err == nil {
			started = append(started, id)
		}
	}
	return started
}

func (e *Engine) StopAll(ctx context.Context) {
	for _, id := range e.CourtIDs() {
		_, _ = e.Stop(ctx, id)
	}
}

// Next moves the active index forward by one within the queue bounds.
func (e *Engine) Next(ctx context.Context, id int) (court.Court, error) {
	return e.skip(ctx, id, 1)
}

// Previous moves the active index back by one within the queue bounds.
func (e *Engine) Previous(ctx context.Context, id int) (court.Court, error) {
	return e.skip(ctx, id, -1)
}

func (e *Engine) skip(ctx context.Context, id, delta int) (court.Court, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, err := e.lockedCourt(id)
	if err != nil {
		return court.Court{}, err
	}
	c := &cs.court
	if len(c.Queue) == 0 {
		return c.Clone(), nil
	}

	current := -1
	if c.ActiveIndex != nil {
		current = *c.ActiveIndex
	}
	target := min(max(current+delta, 0), len(c.Queue)-1)
	if target == current {
		return c.Clone(), nil
	}

	cs.resetMatchState()
	c.ActiveIndex = court.IntPtr(target)
	if c.Polling {
		c.Status = court.StatusWaiting
	} else {
		c.Status = court.StatusIdle
	}
	e.emitLocked(cs, courtChange(court.ReasonManualSkip, c.Queue[target]))
	e.logger.InfoContext(ctx, "court skipped", "court_id", id, "from_index", current, "to_index", target)
	e.persist.Schedule()
	return c.Clone(), nil
}

func (e *Engine) Rename(ctx context.Context, id int, name string) (court.Court, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return court.Court{}, fmt.Errorf("%w: court name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cs, err := e.lockedCourt(id)
	if err != nil {
		return court.Court{}, err
	}
	cs.court.Name = name
	e.persist.Schedule()
	return cs.court.Clone(), nil
}

// ReplaceQueue swaps in a new queue and resets the court to idle with no
// snapshot. Polling stops until the court is started again.
func (e *Engine) ReplaceQueue(ctx context.Context, id int, refs []match.MatchRef) (court.Court, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.ReplaceQueue", courtAttr(id))
	defer span.End()

	if err := validateRefs(refs); err != nil {
		return court.Court{}, err
	}

	e.mu.Lock()
	cs, err := e.lockedCourt(id)
	if err != nil {
		e.mu.Unlock()
		return court.Court{}, err
	}
	c := &cs.court
	cs.resetMatchState()
	c.Queue = append([]match.MatchRef{}, refs...)
	c.ActiveIndex = nil
	if len(c.Queue) > 0 {
		c.ActiveIndex = court.IntPtr(0)
	}
	c.Polling = false
	c.Status = court.StatusIdle
	event := court.Event{Type: court.EventCourtChange, Reason: court.ReasonQueueReplaced}
	if first, ok := firstRef(c.Queue); ok {
		event = courtChange(court.ReasonQueueReplaced, first)
	}
	e.emitLocked(cs, event)
	out := c.Clone()
	e.persist.Schedule()
	e.mu.Unlock()

	e.stopLoop(id)
	e.logger.InfoContext(ctx, "court queue replaced", "court_id", id, "matches", len(refs))
	return out, nil
}

// AppendQueue adds matches to the end of the queue without touching the
// active match.
func (e *Engine) AppendQueue(ctx context.Context, id int, refs []match.MatchRef) (court.Court, error) {
	if err := validateRefs(refs); err != nil {
		return court.Court{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cs, err := e.lockedCourt(id)
	if err != nil {
		return court.Court{}, err
	}
	c := &cs.court
	c.Queue = append(c.Queue, refs...)
	if c.ActiveIndex == nil && len(c.Queue) > 0 {
		c.ActiveIndex = court.IntPtr(0)
	}
	e.persist.Schedule()
	e.logger.InfoContext(ctx, "court queue appended", "court_id", id, "matches", len(refs))
	return c.Clone(), nil
}

func (e *Engine) ClearQueue(ctx context.Context, id int) (court.Court, error) {
	e.mu.Lock()
	cs, err := e.lockedCourt(id)
	if err != nil {
		e.mu.Unlock()
		return court.Court{}, err
	}
	c := &cs.court
	cs.resetMatchState()
	c.Queue = []match.MatchRef{}
	c.ActiveIndex = nil
	c.Polling = false
	c.Status = court.StatusIdle
	e.emitLocked(cs, court.Event{Type: court.EventCourtChange, Reason: court.ReasonQueueCleared})
	out := c.Clone()
	e.persist.Schedule()
	e.mu.Unlock()

	e.stopLoop(id)
	e.logger.InfoContext(ctx, "court queue cleared", "court_id", id)
	return out, nil
}

func firstRef(refs []match.MatchRef) (match.MatchRef, bool) {
	if len(refs) == 0 {
		return match.MatchRef{}, false
	}
	return refs[0], true
}

func validateRefs(refs []match.MatchRef) error {
	for i, ref := range refs {
		raw := strings.TrimSpace(ref.URL)
		if raw == "" {
			return fmt.Errorf("%w %d: url is required", ErrInvalidMatchRef, i)
		}
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%w %d: invalid url %q", ErrInvalidMatchRef, i, raw)
		}
	}
	return nil
}
