package match

import (
	"strings"
	"time"
)

const (
	StatusWaiting    = "Waiting"
	StatusPreMatch   = "Pre-Match"
	StatusInProgress = "In Progress"
	StatusFinal      = "Final"
)

const (
	ServeNone  = ""
	ServeTeam1 = "team1"
	ServeTeam2 = "team2"
)

// MatchRef identifies one queued match and carries its display metadata.
type MatchRef struct {
	URL           string     `json:"url"`
	MatchNumber   int        `json:"match_number,omitempty"`
	Team1         string     `json:"team1,omitempty"`
	Team2         string     `json:"team2,omitempty"`
	Team1Seed     string     `json:"team1_seed,omitempty"`
	Team2Seed     string     `json:"team2_seed,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	ScheduledText string     `json:"scheduled_text,omitempty"`
	CourtLabel    string     `json:"court_label,omitempty"`
	PhysicalCourt string     `json:"physical_court,omitempty"`
	SetsToWin     *int       `json:"sets_to_win,omitempty"`
	PointsPerSet  *int       `json:"points_per_set,omitempty"`
	PointCap      *int       `json:"point_cap,omitempty"`
	FormatText    string     `json:"format_text,omitempty"`
}

func (r MatchRef) HasExplicitFormat() bool {
	return r.SetsToWin != nil || r.PointsPerSet != nil || r.PointCap != nil
}

// Format holds the set-completion rules for one match. PointCap is zero when
// the match is played win-by-two without a cap.
type Format struct {
	SetsToWin    int `json:"sets_to_win"`
	PointsPerSet int `json:"points_per_set"`
	PointCap     int `json:"point_cap,omitempty"`
}

func DefaultFormat() Format {
	return Format{SetsToWin: 2, PointsPerSet: 21}
}

func (f Format) HasCap() bool {
	return f.PointCap > 0
}

// MaxSets is the longest the match can run.
func (f Format) MaxSets() int {
	return f.SetsToWin*2 - 1
}

// SetScore is one set line in a snapshot's history.
type SetScore struct {
	SetNumber  int  `json:"set_number"`
	Team1Score int  `json:"team1_score"`
	Team2Score int  `json:"team2_score"`
	IsComplete bool `json:"is_complete"`
}

// Snapshot is the normalized view of one match at poll time. It is always
// replaced wholesale, never patched.
type Snapshot struct {
	CourtID    int        `json:"court_id"`
	Status     string     `json:"status"`
	CurrentSet int        `json:"current_set"`
	Team1Name  string     `json:"team1_name"`
	Team2Name  string     `json:"team2_name"`
	Team1Seed  string     `json:"team1_seed,omitempty"`
	Team2Seed  string     `json:"team2_seed,omitempty"`
	Team1Score int        `json:"team1_score"`
	Team2Score int        `json:"team2_score"`
	Team1Sets  int        `json:"team1_sets"`
	Team2Sets  int        `json:"team2_sets"`
	Serve      string     `json:"serve,omitempty"`
	SetHistory []SetScore `json:"set_history"`
	SetsToWin  int        `json:"sets_to_win"`

	// upstream name resolution, used by metadata refresh only
	Team1Resolved bool `json:"-"`
	Team2Resolved bool `json:"-"`
}

// Progress is the score tuple used for staleness tracking.
type Progress struct {
	Team1Points int
	Team2Points int
	Team1Sets   int
	Team2Sets   int
}

func (s Snapshot) Progress() Progress {
	p := Progress{Team1Sets: s.Team1Sets, Team2Sets: s.Team2Sets}
	if len(s.SetHistory) == 0 {
		p.Team1Points = s.Team1Score
		p.Team2Points = s.Team2Score
		return p
	}
	for _, set := range s.SetHistory {
		p.Team1Points += set.Team1Score
		p.Team2Points += set.Team2Score
	}
	return p
}

func (s Snapshot) HasPoints() bool {
	p := s.Progress()
	return p.Team1Points > 0 || p.Team2Points > 0
}

func (s Snapshot) CompletedSets() int {
	count := 0
	for _, set := range s.SetHistory {
		if set.IsComplete {
			count++
		}
	}
	return count
}

// HistoryStrings renders the set history as "a-b" strings.
func (s Snapshot) HistoryStrings() []string {
	out := make([]string, 0, len(s.SetHistory))
	for _, set := range s.SetHistory {
		out = append(out, formatPair(set.Team1Score, set.Team2Score))
	}
	return out
}

func statusContains(status string, needles ...string) bool {
	lowered := strings.ToLower(status)
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}

func IsFinalStatus(status string) bool {
	return statusContains(status, "final")
}

func IsLiveStatus(status string) bool {
	return statusContains(status, "progress", "live", "playing")
}
