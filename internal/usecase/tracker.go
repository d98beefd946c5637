package usecase

import (
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/match"
)

// matchTracker holds per-match bookkeeping that is not part of the court
// itself. It is only ever cleared through courtState.resetMatchState.
type matchTracker struct {
	progress  match.Progress
	seen      bool
	changedAt time.Time

	// observedLive is set once the match has shown any scoring.
	observedLive bool
	// concluded is sticky for the match so a flapping upstream status does
	// not pull a finished court back to live.
	concluded      bool
	staleConcluded bool
}

func (t *matchTracker) observe(snap match.Snapshot, now time.Time) {
	p := snap.Progress()
	if !t.seen || p != t.progress {
		t.progress = p
		t.seen = true
		t.changedAt = now
	}
	if match.IsActivelyScoring(snap) || snap.HasPoints() {
		t.observedLive = true
	}
}

// stale reports whether a match that has been seen scoring has not changed
// its score tuple for at least timeout.
func (t *matchTracker) stale(now time.Time, timeout time.Duration) bool {
	return t.seen && t.observedLive && timeout > 0 && now.Sub(t.changedAt) >= timeout
}
