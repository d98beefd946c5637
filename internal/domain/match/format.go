package match

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	singleGameRegex   = regexp.MustCompile(`\b1\s*(?:game|set)\b`)
	matchPlayRegex    = regexp.MustCompile(`match\s*play`)
	bestOutOfRegex    = regexp.MustCompile(`best\s+(\d+)\s+out\s+of\s+(\d+)`)
	bestOfRegex       = regexp.MustCompile(`best\s+of\s+(\d+)`)
	setCountRegex     = regexp.MustCompile(`(\d+)\s+sets?\b`)
	gameToRegex       = regexp.MustCompile(`games?\s+to\s+(\d+)`)
	setsPairToRegex   = regexp.MustCompile(`sets?\s+\d+\s*(?:&|and)\s*\d+\s+to\s+(\d+)`)
	setToRegex        = regexp.MustCompile(`set\s*\d*\s+to\s+(\d+)`)
	genericToRegex    = regexp.MustCompile(`\bto\s+(\d+)\b`)
	twoDigitRegex     = regexp.MustCompile(`\b(\d{2})\b`)
	noCapRegex        = regexp.MustCompile(`\bno\s*cap\b`)
	capAtRegex        = regexp.MustCompile(`cap(?:ped)?\s+(?:at\s+)?(\d+)`)
	pointCapRegex     = regexp.MustCompile(`(\d+)\s*(?:-\s*)?point\s+cap`)
	commonPointTotals = map[int]struct{}{15: {}, 21: {}, 25: {}, 28: {}}
)

// PoolDetector reports whether a fetch URL points at a pool-play endpoint.
type PoolDetector func(rawURL string) bool

// DefaultPoolDetector treats bracket=false, pool=true and /pools/ paths as
// pool play. Providers differ, so the engine accepts a replacement.
func DefaultPoolDetector(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	query := u.Query()
	if strings.EqualFold(query.Get("bracket"), "false") || strings.EqualFold(query.Get("pool"), "true") {
		return true
	}
	return strings.Contains(strings.ToLower(u.Path), "/pools/")
}

// PoolFormat is the conservative single-set format assumed for pool matches
// imported without any format information.
func PoolFormat() Format {
	return Format{SetsToWin: 1, PointsPerSet: 21, PointCap: 23}
}

// InferFormat derives the scoring rules for ref. Explicit fields win over the
// format text, the text wins over the pool URL heuristic, and the default is
// two sets to 21 without a cap.
func InferFormat(ref MatchRef, detect PoolDetector) Format {
	f := DefaultFormat()
	text := strings.TrimSpace(ref.FormatText)
	switch {
	case text != "":
		f = ParseFormatText(text)
	case !ref.HasExplicitFormat() && detect != nil && detect(ref.URL):
		return PoolFormat()
	}

	if ref.SetsToWin != nil && *ref.SetsToWin > 0 {
		f.SetsToWin = *ref.SetsToWin
	}
	if ref.PointsPerSet != nil && *ref.PointsPerSet > 0 {
		f.PointsPerSet = *ref.PointsPerSet
	}
	if ref.PointCap != nil {
		f.PointCap = max(*ref.PointCap, 0)
	}
	if f.PointCap > 0 && f.PointCap < f.PointsPerSet {
		f.PointCap = 0
	}
	return f
}

// ParseFormatText reads free-text format descriptions such as
// "All matches are 1 game to 21 cap at 23".
func ParseFormatText(text string) Format {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return DefaultFormat()
	}
	return Format{
		SetsToWin:    parseSetsToWin(lowered),
		PointsPerSet: parsePointsPerSet(lowered),
		PointCap:     parsePointCap(lowered),
	}
}

func parseSetsToWin(text string) int {
	if singleGameRegex.MatchString(text) {
		return 1
	}
	if matchPlayRegex.MatchString(text) {
		return 2
	}
	if m := bestOutOfRegex.FindStringSubmatch(text); m != nil {
		if n := atoi(m[1]); n > 0 {
			return n
		}
	}
	if m := bestOfRegex.FindStringSubmatch(text); m != nil {
		if total := atoi(m[1]); total > 0 {
			return total/2 + 1
		}
	}
	if m := setCountRegex.FindStringSubmatch(text); m != nil {
		n := atoi(m[1])
		switch {
		case n == 1 || n == 2:
			return n
		case n == 3:
			return 2
		}
	}
	return 2
}

func parsePointsPerSet(text string) int {
	for _, re := range []*regexp.Regexp{gameToRegex, setsPairToRegex, setToRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := atoi(m[1]); n > 0 {
				return n
			}
		}
	}
	if m := genericToRegex.FindStringSubmatch(text); m != nil {
		if n := atoi(m[1]); n >= 10 && n <= 35 {
			return n
		}
	}
	for _, m := range twoDigitRegex.FindAllStringSubmatch(text, -1) {
		n := atoi(m[1])
		if _, ok := commonPointTotals[n]; ok {
			return n
		}
	}
	return 21
}

func parsePointCap(text string) int {
	if noCapRegex.MatchString(text) {
		return 0
	}
	if m := capAtRegex.FindStringSubmatch(text); m != nil {
		return atoi(m[1])
	}
	if m := pointCapRegex.FindStringSubmatch(text); m != nil {
		return atoi(m[1])
	}
	return 0
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
