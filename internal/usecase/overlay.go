package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/match"
)

var matchReferencePattern = regexp.MustCompile(`(?i)\bmatch\s*#?\s*(\d+)\b`)

// OverlayView is the flat read model consumed by the overlay renderer.
type OverlayView struct {
	CourtID      int        `json:"court_id"`
	CourtName    string     `json:"court_name"`
	Status       string     `json:"status"`
	MatchNumber  int        `json:"match_number"`
	Team1Name    string     `json:"team1_name"`
	Team2Name    string     `json:"team2_name"`
	Team1Seed    string     `json:"team1_seed"`
	Team2Seed    string     `json:"team2_seed"`
	Team1Score   int        `json:"team1_score"`
	Team2Score   int        `json:"team2_score"`
	Team1Sets    int        `json:"team1_sets"`
	Team2Sets    int        `json:"team2_sets"`
	CurrentSet   int        `json:"current_set"`
	Serve        string     `json:"serve"`
	SetHistory   []string   `json:"set_history"`
	SetsToWin    int        `json:"sets_to_win"`
	PointsPerSet int        `json:"points_per_set"`
	PointCap     int        `json:"point_cap"`
	NextMatch    string     `json:"next_match"`
	LiveSince    *time.Time `json:"live_since,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

func emptyOverlay(courtID int) OverlayView {
	return OverlayView{CourtID: courtID, SetHistory: []string{}}
}

// Overlay never fails: unknown courts and courts without an active match get
// an empty view.
func (e *Engine) Overlay(courtID int) OverlayView {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, ok := e.courts[courtID]
	if !ok {
		return emptyOverlay(courtID)
	}
	c := cs.court
	view := emptyOverlay(courtID)
	view.CourtName = c.Name
	view.Status = string(c.Status)

	active, _, ok := c.ActiveMatch()
	if !ok {
		return view
	}
	format := e.formatFor(active)
	view.MatchNumber = active.MatchNumber
	view.Team1Name = active.Team1
	view.Team2Name = active.Team2
	view.Team1Seed = active.Team1Seed
	view.Team2Seed = active.Team2Seed
	view.SetsToWin = format.SetsToWin
	view.PointsPerSet = format.PointsPerSet
	view.PointCap = format.PointCap
	view.ErrorMessage = c.ErrorMessage
	if c.LiveSince != nil {
		since := *c.LiveSince
		view.LiveSince = &since
	}

	if snap := c.Snapshot; snap != nil {
		view.Team1Name = snap.Team1Name
		view.Team2Name = snap.Team2Name
		view.Team1Seed = snap.Team1Seed
		view.Team2Seed = snap.Team2Seed
		view.Team1Score = snap.Team1Score
		view.Team2Score = snap.Team2Score
		view.Team1Sets = snap.Team1Sets
		view.Team2Sets = snap.Team2Sets
		view.CurrentSet = snap.CurrentSet
		view.Serve = snap.Serve
		view.SetHistory = snap.HistoryStrings()
	}

	if next, ok := c.NextMatch(); ok {
		view.NextMatch = describeNext(next, active.MatchNumber)
	}
	return view
}

// describeNext renders "Next: A vs B", rewriting references to the active
// match number as "this match".
func describeNext(next match.MatchRef, activeNumber int) string {
	team1 := rewriteSelfReference(strings.TrimSpace(next.Team1), activeNumber)
	team2 := rewriteSelfReference(strings.TrimSpace(next.Team2), activeNumber)
	switch {
	case team1 == "" && team2 == "":
		if next.MatchNumber > 0 {
			return fmt.Sprintf("Next: Match %d", next.MatchNumber)
		}
		return ""
	case team2 == "":
		return "Next: " + team1
	case team1 == "":
		return "Next: " + team2
	}
	return fmt.Sprintf("Next: %s vs %s", team1, team2)
}

func rewriteSelfReference(name string, activeNumber int) string {
	if activeNumber <= 0 {
		return name
	}
	return matchReferencePattern.ReplaceAllStringFunc(name, func(found string) string {
		sub := matchReferencePattern.FindStringSubmatch(found)
		if len(sub) < 2 {
			return found
		}
		if n, err := strconv.Atoi(sub[1]); err == nil && n == activeNumber {
			return "this match"
		}
		return found
	})
}
