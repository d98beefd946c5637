package court

import "time"

type EventType string

const (
	EventCourtChange   EventType = "court_change"
	EventMatchComplete EventType = "match_complete"
)

// Reasons attached to events and advance metrics.
const (
	ReasonHoldElapsed   = "hold_elapsed"
	ReasonNextStarted   = "next_started"
	ReasonStaleTimeout  = "stale_timeout"
	ReasonNeverLive     = "never_live"
	ReasonFinal         = "final"
	ReasonSmartSwitch   = "smart_switch"
	ReasonManualSkip    = "manual_skip"
	ReasonQueueReplaced = "queue_replaced"
	ReasonQueueCleared  = "queue_cleared"
	ReasonQueueEnded    = "queue_exhausted"
	ReasonReassigned    = "reassigned"
)

// Event is emitted to the notification collaborator on court changes and
// match completions.
type Event struct {
	Type        EventType `json:"type"`
	Reason      string    `json:"reason"`
	CourtID     int       `json:"court_id"`
	CourtName   string    `json:"court_name"`
	FromCourtID int       `json:"from_court_id,omitempty"`
	MatchURL    string    `json:"match_url,omitempty"`
	MatchNumber int       `json:"match_number,omitempty"`
	Team1       string    `json:"team1,omitempty"`
	Team2       string    `json:"team2,omitempty"`
	SetHistory  []string  `json:"set_history,omitempty"`
	Skipped     int       `json:"skipped,omitempty"`
	Urgent      bool      `json:"urgent"`
	OccurredAt  time.Time `json:"occurred_at"`
}
