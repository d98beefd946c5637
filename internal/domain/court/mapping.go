package court

import (
	"context"
	"strings"
)

// Mapping routes a physical court label, as printed on the schedule, to a
// slot id.
type Mapping struct {
	Label   string `json:"label"`
	CourtID int    `json:"court_id"`
}

// NormalizeLabel folds case and surrounding whitespace so "Court 3 " and
// "court 3" resolve the same.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

type MappingRepository interface {
	LoadMappings(ctx context.Context) ([]Mapping, error)
	SaveMappings(ctx context.Context, mappings []Mapping) error
}
