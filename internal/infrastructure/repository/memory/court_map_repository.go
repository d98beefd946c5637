package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/courtsync/internal/domain/court"
)

type CourtMapRepository struct {
	mu       sync.RWMutex
	mappings []court.Mapping
}

func NewCourtMapRepository() *CourtMapRepository {
	return &CourtMapRepository{}
}

func (r *CourtMapRepository) LoadMappings(_ context.Context) ([]court.Mapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]court.Mapping(nil), r.mappings...), nil
}

func (r *CourtMapRepository) SaveMappings(_ context.Context, mappings []court.Mapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mappings = append([]court.Mapping(nil), mappings...)
	return nil
}
