package court

import (
	"fmt"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/match"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusWaiting  Status = "waiting"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Court is one polling slot and its match queue.
type Court struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Queue        []match.MatchRef `json:"queue"`
	ActiveIndex  *int             `json:"active_index,omitempty"`
	Status       Status           `json:"status"`
	Snapshot     *match.Snapshot  `json:"snapshot,omitempty"`
	LiveSince    *time.Time       `json:"live_since,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	LastPollTime *time.Time       `json:"last_poll_time,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Polling      bool             `json:"polling"`
}

func New(id int) Court {
	return Court{
		ID:     id,
		Name:   DefaultName(id),
		Queue:  []match.MatchRef{},
		Status: StatusIdle,
	}
}

func DefaultName(id int) string {
	return fmt.Sprintf("Court %d", id)
}

// ActiveMatch returns the match under the active index, if any.
func (c Court) ActiveMatch() (match.MatchRef, int, bool) {
	if c.ActiveIndex == nil {
		return match.MatchRef{}, 0, false
	}
	idx := *c.ActiveIndex
	if idx < 0 || idx >= len(c.Queue) {
		return match.MatchRef{}, 0, false
	}
	return c.Queue[idx], idx, true
}

// NextMatch returns the match queued right after the active one.
func (c Court) NextMatch() (match.MatchRef, bool) {
	_, idx, ok := c.ActiveMatch()
	if !ok || idx+1 >= len(c.Queue) {
		return match.MatchRef{}, false
	}
	return c.Queue[idx+1], true
}

// Clone returns a deep copy safe to hand outside the engine.
func (c Court) Clone() Court {
	out := c
	out.Queue = append([]match.MatchRef{}, c.Queue...)
	if c.ActiveIndex != nil {
		idx := *c.ActiveIndex
		out.ActiveIndex = &idx
	}
	if c.Snapshot != nil {
		snap := *c.Snapshot
		snap.SetHistory = append([]match.SetScore{}, c.Snapshot.SetHistory...)
		out.Snapshot = &snap
	}
	out.LiveSince = cloneTime(c.LiveSince)
	out.FinishedAt = cloneTime(c.FinishedAt)
	out.LastPollTime = cloneTime(c.LastPollTime)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func IntPtr(v int) *int {
	return &v
}
