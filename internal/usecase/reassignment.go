package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/courtsync/internal/domain/court"
)

// Move describes one match migrated by the reassignment pass.
type Move struct {
	URL         string `json:"url"`
	MatchNumber int    `json:"match_number"`
	FromCourtID int    `json:"from_court_id"`
	ToCourtID   int    `json:"to_court_id"`
	WasLive     bool   `json:"was_live"`
}

type plannedMove struct {
	url  string
	from int
	to   int
}

// ReassignmentPass moves queued matches whose physical court label now maps to
// a different slot. The whole sweep runs under the engine lock so a match is
// never lost or moved twice.
func (e *Engine) ReassignmentPass(ctx context.Context) []Move {
	if e.mapper == nil {
		return nil
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.ReassignmentPass")
	defer span.End()

	var (
		moves    []Move
		stopIDs  []int
		moveSeen = make(map[string]bool)
	)

	e.mu.Lock()
	var plan []plannedMove
	for _, id := range e.ids {
		for _, ref := range e.courts[id].court.Queue {
			label := strings.TrimSpace(ref.PhysicalCourt)
			if label == "" || moveSeen[ref.URL] {
				continue
			}
			dest, ok := e.mapper.Lookup(label)
			if !ok || dest == id {
				continue
			}
			if _, exists := e.courts[dest]; !exists {
				continue
			}
			moveSeen[ref.URL] = true
			plan = append(plan, plannedMove{url: ref.URL, from: id, to: dest})
		}
	}

	for _, pm := range plan {
		move, ok, sourceEmptied := e.applyMoveLocked(ctx, pm)
		if !ok {
			continue
		}
		moves = append(moves, move)
		if sourceEmptied {
			stopIDs = append(stopIDs, pm.from)
		}
	}
	if len(moves) > 0 {
		e.persist.Schedule()
	}
	e.mu.Unlock()

	for _, id := range stopIDs {
		e.stopLoop(id)
	}
	return moves
}

func (e *Engine) applyMoveLocked(ctx context.Context, pm plannedMove) (Move, bool, bool) {
	src := e.courts[pm.from]
	dst := e.courts[pm.to]

	idx := court.IndexOf(src.court, pm.url)
	if idx < 0 {
		return Move{}, false, false
	}
	srcWasLive := src.court.Status == court.StatusLive

	ref, wasActive, ok := court.RemoveAt(&src.court, idx)
	if !ok {
		return Move{}, false, false
	}
	sourceEmptied := false
	if wasActive {
		src.resetMatchState()
		switch {
		case len(src.court.Queue) == 0:
			src.court.Polling = false
			src.court.Status = court.StatusIdle
			sourceEmptied = true
		case src.court.Polling:
			src.court.Status = court.StatusWaiting
		default:
			src.court.Status = court.StatusIdle
		}
	}

	pos := court.InsertOrdered(&dst.court, ref, dst.court.Status == court.StatusLive)
	if dst.court.ActiveIndex == nil {
		dst.court.ActiveIndex = court.IntPtr(0)
	}

	urgent := wasActive && srcWasLive
	event := courtChange(court.ReasonReassigned, ref)
	event.FromCourtID = pm.from
	event.Urgent = urgent
	e.emitLocked(dst, event)

	e.metrics.Reassignment()
	e.logger.InfoContext(ctx, "reassigned match",
		"match_number", ref.MatchNumber,
		"physical_court", ref.PhysicalCourt,
		"from_court_id", pm.from,
		"to_court_id", pm.to,
		"position", pos,
		"urgent", urgent,
	)
	return Move{
		URL:         ref.URL,
		MatchNumber: ref.MatchNumber,
		FromCourtID: pm.from,
		ToCourtID:   pm.to,
		WasLive:     urgent,
	}, true, sourceEmptied
}
