package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
)

// pollCycle pins the court generation and active match a cycle started with.
// Every write re-checks it so results for a match that is no longer active
// are discarded.
type pollCycle struct {
	courtID int
	gen     uint64
	index   int
	ref     match.MatchRef
	format  match.Format
}

type followUp int

const (
	followNone followUp = iota
	followAdvance
	followLookahead
)

type cycleOutcome struct {
	action followUp
	reason string
	// remaining are the queued matches after the active one, captured with
	// the outcome so the advance scan can run without the lock.
	remaining []match.MatchRef
}

// PollOnce runs one poll cycle for a court now instead of waiting for its
// timer. It shares the in-flight guard with the scheduler and reports false
// when a cycle for the court is already running.
func (e *Engine) PollOnce(ctx context.Context, courtID int) bool {
	e.mu.Lock()
	cs, ok := e.courts[courtID]
	e.mu.Unlock()
	if !ok || !cs.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer cs.inFlight.Store(false)

	e.pollCourt(ctx, courtID)
	return true
}

func (e *Engine) pollCourt(ctx context.Context, courtID int) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.pollCourt", courtAttr(courtID))
	defer span.End()

	cyc, ok := e.beginCycle(courtID)
	if !ok {
		return
	}

	payload, fetchErr := e.source.Get(ctx, cyc.ref.URL)

	e.mu.Lock()
	cs := e.courts[courtID]
	if !e.cycleValidLocked(cs, cyc) {
		e.mu.Unlock()
		e.metrics.Poll("discarded")
		return
	}
	now := e.now()
	cs.court.LastPollTime = &now
	if fetchErr != nil {
		cs.court.ErrorMessage = fetchErr.Error()
		e.mu.Unlock()
		e.metrics.Poll("error")
		e.logger.WarnContext(ctx, "poll failed", "court_id", courtID, "url", cyc.ref.URL, "error", fetchErr)
		return
	}
	cs.court.ErrorMessage = ""
	snap := match.Normalize(payload, courtID, cyc.ref, cyc.format)
	probes := e.probeTargetsLocked(cs, cyc, snap, now)
	e.mu.Unlock()
	e.metrics.Poll("ok")

	if len(probes) > 0 && e.smartSwitch(ctx, cyc, probes) {
		return
	}

	outcome := e.applySnapshot(ctx, cyc, snap)
	switch outcome.action {
	case followLookahead:
		if len(outcome.remaining) > 0 && e.inPlay(ctx, outcome.remaining[0]) {
			e.advance(ctx, cyc, court.ReasonNextStarted, outcome.remaining)
		}
	case followAdvance:
		e.advance(ctx, cyc, outcome.reason, outcome.remaining)
	}
}

func (e *Engine) beginCycle(courtID int) (pollCycle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, ok := e.courts[courtID]
	if !ok || !cs.court.Polling {
		return pollCycle{}, false
	}
	ref, idx, ok := cs.court.ActiveMatch()
	if !ok {
		return pollCycle{}, false
	}
	return pollCycle{
		courtID: courtID,
		gen:     cs.gen,
		index:   idx,
		ref:     ref,
		format:  e.formatFor(ref),
	}, true
}

func (e *Engine) cycleValidLocked(cs *courtState, cyc pollCycle) bool {
	if cs == nil || cs.gen != cyc.gen || !cs.court.Polling {
		return false
	}
	ref, idx, ok := cs.court.ActiveMatch()
	return ok && idx == cyc.index && ref.URL == cyc.ref.URL
}

// applySnapshot drives the court state machine with a fresh snapshot and
// decides whether the court should move on.
func (e *Engine) applySnapshot(ctx context.Context, cyc pollCycle, snap match.Snapshot) cycleOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs := e.courts[cyc.courtID]
	if !e.cycleValidLocked(cs, cyc) {
		e.metrics.Poll("discarded")
		return cycleOutcome{}
	}

	now := e.now()
	c := &cs.court
	tr := &cs.tracker
	prevStatus := c.Status
	prevSnap := c.Snapshot

	tr.observe(snap, now)
	if !tr.concluded {
		switch {
		case match.IsConcluded(snap, cyc.format):
			tr.concluded = true
		case tr.stale(now, e.cfg.StaleTimeout):
			tr.concluded = true
			tr.staleConcluded = true
		}
	}
	c.Snapshot = &snap

	outcome := cycleOutcome{}
	switch {
	case tr.concluded:
		c.Status = court.StatusFinished
		c.LiveSince = nil
		if c.FinishedAt == nil {
			finishedAt := now
			c.FinishedAt = &finishedAt
			e.emitMatchCompleteLocked(cs, cyc.ref, snap)
		}
		outcome = e.holdDecisionLocked(cs, cyc, now)
	case match.IsActivelyScoring(snap):
		if prevStatus != court.StatusLive {
			liveSince := now
			c.LiveSince = &liveSince
		}
		c.Status = court.StatusLive
	default:
		c.Status = court.StatusWaiting
		c.LiveSince = nil
	}

	if prevStatus != c.Status {
		e.logger.InfoContext(ctx, "court status changed",
			"court_id", c.ID,
			"from", prevStatus,
			"to", c.Status,
			"match_number", cyc.ref.MatchNumber,
		)
	}
	if prevStatus != c.Status || prevSnap == nil || prevSnap.Progress() != snap.Progress() {
		e.persist.Schedule()
	}
	return outcome
}

func (e *Engine) holdDecisionLocked(cs *courtState, cyc pollCycle, now time.Time) cycleOutcome {
	remaining := append([]match.MatchRef(nil), cs.court.Queue[cyc.index+1:]...)
	tr := cs.tracker

	switch {
	case tr.staleConcluded:
		return cycleOutcome{action: followAdvance, reason: court.ReasonStaleTimeout, remaining: remaining}
	case !tr.observedLive:
		return cycleOutcome{action: followAdvance, reason: court.ReasonNeverLive, remaining: remaining}
	case now.Sub(*cs.court.FinishedAt) >= e.cfg.PostMatchHold:
		return cycleOutcome{action: followAdvance, reason: court.ReasonHoldElapsed, remaining: remaining}
	case len(remaining) > 0:
		return cycleOutcome{action: followLookahead, remaining: remaining}
	}
	return cycleOutcome{}
}

func (e *Engine) emitMatchCompleteLocked(cs *courtState, ref match.MatchRef, snap match.Snapshot) {
	reason := court.ReasonFinal
	if cs.tracker.staleConcluded {
		reason = court.ReasonStaleTimeout
	}
	e.emitLocked(cs, court.Event{
		Type:        court.EventMatchComplete,
		Reason:      reason,
		MatchURL:    ref.URL,
		MatchNumber: ref.MatchNumber,
		Team1:       snap.Team1Name,
		Team2:       snap.Team2Name,
		SetHistory:  snap.HistoryStrings(),
	})
}

// inPlay fetches a queued match and reports whether it is scoring and not
// yet concluded. Fetch failures count as not in play.
func (e *Engine) inPlay(ctx context.Context, ref match.MatchRef) bool {
	snap, err := e.probe(ctx, ref)
	return err == nil && match.IsInPlay(snap, e.formatFor(ref))
}

func (e *Engine) probe(ctx context.Context, ref match.MatchRef) (match.Snapshot, error) {
	payload, err := e.source.Get(ctx, ref.URL)
	if err != nil {
		return match.Snapshot{}, err
	}
	return match.Normalize(payload, 0, ref, e.formatFor(ref)), nil
}

// advance moves the court past the concluded active match, skipping any
// queued matches that have also concluded. A match whose fetch fails is
// treated as playable.
func (e *Engine) advance(ctx context.Context, cyc pollCycle, reason string, remaining []match.MatchRef) {
	skipped := 0
	for _, ref := range remaining {
		snap, err := e.probe(ctx, ref)
		if err != nil || !match.IsConcluded(snap, e.formatFor(ref)) {
			break
		}
		skipped++
	}
	target := cyc.index + 1 + skipped

	e.mu.Lock()
	defer e.mu.Unlock()

	cs := e.courts[cyc.courtID]
	if !e.cycleValidLocked(cs, cyc) {
		return
	}
	if target < len(cs.court.Queue) && skipped < len(remaining) && cs.court.Queue[target].URL != remaining[skipped].URL {
		return
	}

	c := &cs.court
	if target >= len(c.Queue) {
		c.Status = court.StatusIdle
		c.Polling = false
		cs.resetMatchStateKeepSnapshot()
		e.emitLocked(cs, court.Event{
			Type:        court.EventCourtChange,
			Reason:      court.ReasonQueueEnded,
			MatchURL:    cyc.ref.URL,
			MatchNumber: cyc.ref.MatchNumber,
			Skipped:     skipped,
		})
		e.metrics.Advance(reason)
		e.logger.InfoContext(ctx, "queue exhausted",
			"court_id", c.ID,
			"reason", reason,
			"skipped", skipped,
		)
		e.persist.Schedule()
		return
	}

	cs.resetMatchState()
	c.ActiveIndex = court.IntPtr(target)
	c.Status = court.StatusWaiting
	next := c.Queue[target]
	event := courtChange(reason, next)
	event.Skipped = skipped
	e.emitLocked(cs, event)
	e.metrics.Advance(reason)
	e.logger.InfoContext(ctx, "auto-advanced court",
		"court_id", c.ID,
		"reason", reason,
		"from_index", cyc.index,
		"to_index", target,
		"skipped", skipped,
	)
	e.persist.Schedule()
}
