package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlay_UnknownCourtIsEmpty(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	view := f.engine.Overlay(77)
	assert.Equal(t, OverlayView{CourtID: 77, SetHistory: []string{}}, view)
	assert.NotNil(t, view.SetHistory)
}

func TestOverlay_CourtWithoutMatch(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	view := f.engine.Overlay(1)
	assert.Equal(t, "Court 1", view.CourtName)
	assert.Empty(t, view.Team1Name)
	assert.Empty(t, view.SetHistory)
	assert.Zero(t, view.SetsToWin)
}

func TestOverlay_LiveMatchWithNextDescription(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	next := ref(6)
	next.Team1 = "Winner of Match 5"
	next.Team2 = "Loser of Match #4"
	f.queue(t, 1, ref(5), next)
	f.source.set(matchURL(5), `[{"players":"Kim / Cho","game1":21,"game2":7,"serve":true},{"players":"Lee / Park","game1":18,"game2":9}]`)

	f.engine.PollOnce(context.Background(), 1)
	view := f.engine.Overlay(1)

	require.Equal(t, "live", view.Status)
	assert.Equal(t, "Kim / Cho", view.Team1Name)
	assert.Equal(t, "Lee / Park", view.Team2Name)
	assert.Equal(t, 7, view.Team1Score)
	assert.Equal(t, 9, view.Team2Score)
	assert.Equal(t, 1, view.Team1Sets)
	assert.Equal(t, 2, view.CurrentSet)
	assert.Equal(t, match.ServeTeam1, view.Serve)
	assert.Equal(t, []string{"21-18", "7-9"}, view.SetHistory)
	assert.Equal(t, 2, view.SetsToWin)
	assert.Equal(t, 21, view.PointsPerSet)
	assert.Equal(t, "Next: Winner of this match vs Loser of Match #4", view.NextMatch)
	assert.NotNil(t, view.LiveSince)
}

func TestDescribeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		next   match.MatchRef
		active int
		want   string
	}{
		{"plain teams", match.MatchRef{Team1: "A", Team2: "B"}, 3, "Next: A vs B"},
		{"self reference", match.MatchRef{Team1: "Winner of match 3", Team2: "B"}, 3, "Next: Winner of this match vs B"},
		{"other match kept", match.MatchRef{Team1: "Winner of Match 13", Team2: "B"}, 3, "Next: Winner of Match 13 vs B"},
		{"no active number", match.MatchRef{Team1: "Winner of Match 3", Team2: "B"}, 0, "Next: Winner of Match 3 vs B"},
		{"only number", match.MatchRef{MatchNumber: 9}, 3, "Next: Match 9"},
		{"nothing", match.MatchRef{}, 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, describeNext(tt.next, tt.active))
		})
	}
}
