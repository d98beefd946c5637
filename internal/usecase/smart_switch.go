package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

type probeTarget struct {
	index int
	ref   match.MatchRef
}

type probeResult struct {
	probeTarget
	inPlay bool
}

// probeTargetsLocked returns the other queued matches to probe when the active
// match has not started and the court's probe throttle allows it.
func (e *Engine) probeTargetsLocked(cs *courtState, cyc pollCycle, snap match.Snapshot, now time.Time) []probeTarget {
	c := cs.court
	if len(c.Queue) < 2 || c.Status == court.StatusLive || cs.tracker.observedLive {
		return nil
	}
	if match.IsConcluded(snap, cyc.format) || match.IsActivelyScoring(snap) {
		return nil
	}
	if !cs.probeLimiter.AllowN(now, 1) {
		return nil
	}

	targets := make([]probeTarget, 0, len(c.Queue)-1)
	for i, ref := range c.Queue {
		if i != cyc.index {
			targets = append(targets, probeTarget{index: i, ref: ref})
		}
	}
	return targets
}

// smartSwitch probes the targets concurrently and switches the court to the
// only one found in play. Nothing else from the current cycle is applied when
// it switches.
func (e *Engine) smartSwitch(ctx context.Context, cyc pollCycle, targets []probeTarget) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.smartSwitch", courtAttr(cyc.courtID), attribute.Int("courtsync.probe_targets", len(targets)))
	defer span.End()

	p := pool.NewWithResults[probeResult]().WithMaxGoroutines(e.cfg.SmartSwitchMaxProbes)
	for _, target := range targets {
		p.Go(func() probeResult {
			return probeResult{probeTarget: target, inPlay: e.inPlay(ctx, target.ref)}
		})
	}

	var found []probeTarget
	for _, result := range p.Wait() {
		if result.inPlay {
			found = append(found, result.probeTarget)
		}
	}
	if len(found) != 1 {
		if len(found) > 1 {
			e.logger.DebugContext(ctx, "smart switch skipped, several matches in play",
				"court_id", cyc.courtID,
				"candidates", len(found),
			)
		}
		return false
	}
	chosen := found[0]

	e.mu.Lock()
	defer e.mu.Unlock()

	cs := e.courts[cyc.courtID]
	if !e.cycleValidLocked(cs, cyc) {
		return false
	}
	if chosen.index >= len(cs.court.Queue) || cs.court.Queue[chosen.index].URL != chosen.ref.URL {
		return false
	}

	cs.resetMatchState()
	cs.court.ActiveIndex = court.IntPtr(chosen.index)
	cs.court.Status = court.StatusWaiting
	e.emitLocked(cs, courtChange(court.ReasonSmartSwitch, cs.court.Queue[chosen.index]))
	e.metrics.SmartSwitch()
	e.logger.InfoContext(ctx, "smart switched court to started match",
		"court_id", cyc.courtID,
		"from_index", cyc.index,
		"to_index", chosen.index,
		"match_number", chosen.ref.MatchNumber,
	)
	e.persist.Schedule()
	return true
}
