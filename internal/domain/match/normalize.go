package match

import (
	"bytes"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeTeamPair
	shapeHomeAway
)

// teamEntry is one element of the two-team array shape.
type teamEntry struct {
	Players  teamLabel  `json:"players"`
	TeamName flexString `json:"teamName"`
	Seed     flexString `json:"seed"`
	Serve    flexBool   `json:"serve"`
	Game1    flexInt    `json:"game1"`
	Game2    flexInt    `json:"game2"`
	Game3    flexInt    `json:"game3"`
}

func (t teamEntry) games() [3]int {
	return [3]int{int(t.Game1), int(t.Game2), int(t.Game3)}
}

func (t teamEntry) name() string {
	if name := t.Players.Name; name != "" {
		return name
	}
	return strings.TrimSpace(string(t.TeamName))
}

// homeAwayPayload is the single-object shape.
type homeAwayPayload struct {
	Status   string    `json:"status"`
	HomeTeam teamLabel `json:"homeTeam"`
	AwayTeam teamLabel `json:"awayTeam"`
	Serve    string    `json:"serve"`
	Score    *struct {
		Home flexInt `json:"home"`
		Away flexInt `json:"away"`
	} `json:"score"`
}

// Normalize converts a raw upstream payload into a Snapshot. It is a pure
// function of its inputs: unrecognized payloads produce an empty "Waiting"
// snapshot rather than an error.
func Normalize(payload []byte, courtID int, ref MatchRef, f Format) Snapshot {
	switch detectShape(payload) {
	case shapeTeamPair:
		var teams []teamEntry
		if err := sonic.Unmarshal(payload, &teams); err == nil && len(teams) == 2 {
			return normalizeTeamPair(teams, courtID, ref, f)
		}
	case shapeHomeAway:
		var obj homeAwayPayload
		if err := sonic.Unmarshal(payload, &obj); err == nil && obj.Score != nil {
			return normalizeHomeAway(obj, courtID, ref, f)
		}
	}
	return EmptySnapshot(courtID, ref, f)
}

// EmptySnapshot is the benign snapshot used when nothing can be read.
func EmptySnapshot(courtID int, ref MatchRef, f Format) Snapshot {
	return Snapshot{
		CourtID:    courtID,
		Status:     StatusWaiting,
		CurrentSet: 1,
		Team1Name:  fallbackName(ref.Team1, "Team A"),
		Team2Name:  fallbackName(ref.Team2, "Team B"),
		Team1Seed:  ref.Team1Seed,
		Team2Seed:  ref.Team2Seed,
		SetHistory: []SetScore{},
		SetsToWin:  f.SetsToWin,
	}
}

func detectShape(payload []byte) payloadShape {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return shapeUnknown
	}
	switch trimmed[0] {
	case '[':
		return shapeTeamPair
	case '{':
		return shapeHomeAway
	default:
		return shapeUnknown
	}
}

func normalizeTeamPair(teams []teamEntry, courtID int, ref MatchRef, f Format) Snapshot {
	snap := EmptySnapshot(courtID, ref, f)
	if name := teams[0].name(); name != "" {
		snap.Team1Name = name
		snap.Team1Resolved = true
	}
	if name := teams[1].name(); name != "" {
		snap.Team2Name = name
		snap.Team2Resolved = true
	}
	if seed := strings.TrimSpace(string(teams[0].Seed)); seed != "" {
		snap.Team1Seed = seed
	}
	if seed := strings.TrimSpace(string(teams[1].Seed)); seed != "" {
		snap.Team2Seed = seed
	}
	switch {
	case bool(teams[0].Serve) && !bool(teams[1].Serve):
		snap.Serve = ServeTeam1
	case bool(teams[1].Serve) && !bool(teams[0].Serve):
		snap.Serve = ServeTeam2
	}

	g1, g2 := teams[0].games(), teams[1].games()
	anyPoints := false
	for i := range g1 {
		a, b := max(g1[i], 0), max(g2[i], 0)
		if a == 0 && b == 0 {
			continue
		}
		anyPoints = true
		setNumber := i + 1
		set := SetScore{
			SetNumber:  setNumber,
			Team1Score: a,
			Team2Score: b,
			IsComplete: IsSetComplete(a, b, SetTarget(f, setNumber), f.PointCap),
		}
		snap.SetHistory = append(snap.SetHistory, set)
		if set.IsComplete {
			switch {
			case a > b:
				snap.Team1Sets++
			case b > a:
				snap.Team2Sets++
			}
		}
	}

	final := f.SetsToWin > 0 && (snap.Team1Sets >= f.SetsToWin || snap.Team2Sets >= f.SetsToWin)
	switch {
	case final:
		snap.Status = StatusFinal
	case anyPoints:
		snap.Status = StatusInProgress
	default:
		snap.Status = StatusPreMatch
	}

	if n := len(snap.SetHistory); n > 0 {
		last := snap.SetHistory[n-1]
		snap.CurrentSet = last.SetNumber
		if !last.IsComplete || final {
			snap.Team1Score = last.Team1Score
			snap.Team2Score = last.Team2Score
		} else if next := last.SetNumber + 1; next <= max(f.MaxSets(), 1) {
			snap.CurrentSet = next
		}
	}
	return snap
}

func normalizeHomeAway(obj homeAwayPayload, courtID int, ref MatchRef, f Format) Snapshot {
	snap := EmptySnapshot(courtID, ref, f)
	snap.Status = strings.TrimSpace(obj.Status)
	if name := obj.HomeTeam.Name; name != "" {
		snap.Team1Name = name
		snap.Team1Resolved = true
	}
	if name := obj.AwayTeam.Name; name != "" {
		snap.Team2Name = name
		snap.Team2Resolved = true
	}
	if seed := obj.HomeTeam.Seed; seed != "" {
		snap.Team1Seed = seed
	}
	if seed := obj.AwayTeam.Seed; seed != "" {
		snap.Team2Seed = seed
	}
	switch strings.ToLower(strings.TrimSpace(obj.Serve)) {
	case "home", ServeTeam1:
		snap.Serve = ServeTeam1
	case "away", ServeTeam2:
		snap.Serve = ServeTeam2
	}

	home, away := max(int(obj.Score.Home), 0), max(int(obj.Score.Away), 0)
	snap.Team1Score = home
	snap.Team2Score = away
	if home == 0 && away == 0 {
		return snap
	}

	complete := IsFinalStatus(snap.Status)
	snap.SetHistory = append(snap.SetHistory, SetScore{
		SetNumber:  1,
		Team1Score: home,
		Team2Score: away,
		IsComplete: complete,
	})
	if complete {
		switch {
		case home > away:
			snap.Team1Sets = 1
		case away > home:
			snap.Team2Sets = 1
		}
	}
	return snap
}

func fallbackName(name, generic string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return generic
}

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (v *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*v = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*v = flexInt(n)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*v = flexInt(int(f))
		return nil
	}
	*v = 0
	return nil
}

// flexString accepts strings and numbers.
type flexString string

func (v *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		*v = flexString(unquoted)
		return nil
	}
	*v = flexString(raw)
	return nil
}

// teamLabel decodes a team reference given as a plain name, a list of player
// names or player objects, or an object with a name and seed. Anything else,
// including an empty list or an object without a name, leaves Name empty so
// the queue placeholder is kept.
type teamLabel struct {
	Name string
	Seed string
}

type teamObject struct {
	Name     flexString `json:"name"`
	TeamName flexString `json:"teamName"`
	Seed     flexString `json:"seed"`
}

func (v *teamLabel) UnmarshalJSON(data []byte) error {
	*v = teamLabel{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var entries []teamLabel
		if err := sonic.Unmarshal(trimmed, &entries); err != nil {
			return nil
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Name != "" {
				names = append(names, entry.Name)
			}
		}
		v.Name = strings.Join(names, " / ")
	case '{':
		var obj teamObject
		if err := sonic.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		v.Name = strings.TrimSpace(string(obj.Name))
		if v.Name == "" {
			v.Name = strings.TrimSpace(string(obj.TeamName))
		}
		v.Seed = strings.TrimSpace(string(obj.Seed))
	default:
		var name flexString
		_ = name.UnmarshalJSON(trimmed)
		v.Name = strings.TrimSpace(string(name))
	}
	return nil
}

// flexBool accepts booleans, numbers and the usual truthy strings.
type flexBool bool

func (v *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(data)))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	switch raw {
	case "true", "1", "yes", "y", "*", "x", "serve", "serving":
		*v = true
	default:
		*v = false
	}
	return nil
}
