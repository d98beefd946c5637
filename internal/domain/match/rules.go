package match

import "strconv"

const tieBreakTarget = 15

// IsSetComplete reports whether a set with the given score is over. A set ends
// when either side reaches the cap, or reaches the target with a two point lead.
func IsSetComplete(team1, team2, target, pointCap int) bool {
	high := max(team1, team2)
	if high == 0 {
		return false
	}
	if pointCap > 0 && high >= pointCap {
		return true
	}
	diff := team1 - team2
	if diff < 0 {
		diff = -diff
	}
	return high >= target && diff >= 2
}

// SetTarget returns the point target for a set. The deciding third set is
// played to 15 unless the match target is already lower.
func SetTarget(f Format, setNumber int) int {
	target := f.PointsPerSet
	if target <= 0 {
		target = DefaultFormat().PointsPerSet
	}
	if setNumber == 3 {
		return min(target, tieBreakTarget)
	}
	return target
}

// IsConcluded reports whether the snapshot describes a finished match under f.
func IsConcluded(s Snapshot, f Format) bool {
	if IsFinalStatus(s.Status) {
		return true
	}
	if f.SetsToWin > 0 && (s.Team1Sets >= f.SetsToWin || s.Team2Sets >= f.SetsToWin) {
		return true
	}
	if f.SetsToWin == 1 && s.CompletedSets() == 0 {
		return IsSetComplete(s.Team1Score, s.Team2Score, SetTarget(f, 1), f.PointCap)
	}
	return false
}

// IsActivelyScoring reports whether the snapshot shows a match in play. It
// does not look at conclusion; callers check IsConcluded first.
func IsActivelyScoring(s Snapshot) bool {
	if IsLiveStatus(s.Status) {
		return true
	}
	if s.CurrentSet > 1 {
		return true
	}
	return s.HasPoints()
}

// IsInPlay reports whether a match has started scoring and is not over.
func IsInPlay(s Snapshot, f Format) bool {
	return !IsConcluded(s, f) && IsActivelyScoring(s)
}

func formatPair(a, b int) string {
	return strconv.Itoa(a) + "-" + strconv.Itoa(b)
}
