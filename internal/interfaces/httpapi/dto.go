package httpapi

import (
	"strings"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/riskibarqy/courtsync/internal/usecase"
)

type matchRefRequest struct {
	URL           string     `json:"url" validate:"required,url"`
	MatchNumber   int        `json:"match_number" validate:"omitempty,min=1"`
	Team1         string     `json:"team1" validate:"omitempty,max=120"`
	Team2         string     `json:"team2" validate:"omitempty,max=120"`
	Team1Seed     string     `json:"team1_seed" validate:"omitempty,max=16"`
	Team2Seed     string     `json:"team2_seed" validate:"omitempty,max=16"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	ScheduledText string     `json:"scheduled_text" validate:"omitempty,max=64"`
	CourtLabel    string     `json:"court_label" validate:"omitempty,max=64"`
	PhysicalCourt string     `json:"physical_court" validate:"omitempty,max=64"`
	SetsToWin     *int       `json:"sets_to_win" validate:"omitempty,min=1,max=5"`
	PointsPerSet  *int       `json:"points_per_set" validate:"omitempty,min=1,max=99"`
	PointCap      *int       `json:"point_cap" validate:"omitempty,min=1,max=99"`
	FormatText    string     `json:"format_text" validate:"omitempty,max=256"`
}

type replaceQueueRequest struct {
	Matches []matchRefRequest `json:"matches" validate:"dive"`
}

type appendQueueRequest struct {
	Matches []matchRefRequest `json:"matches" validate:"required,min=1,dive"`
}

type renameCourtRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type courtMappingRequest struct {
	Label   string `json:"label" validate:"required,max=64"`
	CourtID int    `json:"court_id" validate:"required,min=1"`
}

type replaceCourtMapRequest struct {
	Mappings []courtMappingRequest `json:"mappings" validate:"dive"`
}

type startAllDTO struct {
	Started []int `json:"started"`
}

type courtMapDTO struct {
	Mappings []court.Mapping `json:"mappings"`
	Moved    []usecase.Move  `json:"moved,omitempty"`
}

func (req matchRefRequest) toMatchRef() match.MatchRef {
	return match.MatchRef{
		URL:           strings.TrimSpace(req.URL),
		MatchNumber:   req.MatchNumber,
		Team1:         strings.TrimSpace(req.Team1),
		Team2:         strings.TrimSpace(req.Team2),
		Team1Seed:     strings.TrimSpace(req.Team1Seed),
		Team2Seed:     strings.TrimSpace(req.Team2Seed),
		ScheduledAt:   req.ScheduledAt,
		ScheduledText: strings.TrimSpace(req.ScheduledText),
		CourtLabel:    strings.TrimSpace(req.CourtLabel),
		PhysicalCourt: strings.TrimSpace(req.PhysicalCourt),
		SetsToWin:     req.SetsToWin,
		PointsPerSet:  req.PointsPerSet,
		PointCap:      req.PointCap,
		FormatText:    strings.TrimSpace(req.FormatText),
	}
}

func toMatchRefs(in []matchRefRequest) []match.MatchRef {
	out := make([]match.MatchRef, 0, len(in))
	for _, req := range in {
		out = append(out, req.toMatchRef())
	}
	return out
}

func (req replaceCourtMapRequest) toMappings() []court.Mapping {
	out := make([]court.Mapping, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		out = append(out, court.Mapping{Label: m.Label, CourtID: m.CourtID})
	}
	return out
}
