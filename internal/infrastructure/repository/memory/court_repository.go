package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/courtsync/internal/domain/court"
)

// CourtRepository keeps the court list in process memory. State survives
// engine restarts within the process only.
type CourtRepository struct {
	mu     sync.RWMutex
	courts []court.Court
	saves  int
}

func NewCourtRepository(seed []court.Court) *CourtRepository {
	return &CourtRepository{courts: cloneCourts(seed)}
}

func (r *CourtRepository) Load(_ context.Context) ([]court.Court, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneCourts(r.courts), nil
}

func (r *CourtRepository) Save(_ context.Context, courts []court.Court) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.courts = cloneCourts(courts)
	r.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (r *CourtRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.saves
}

func cloneCourts(in []court.Court) []court.Court {
	out := make([]court.Court, 0, len(in))
	for _, c := range in {
		out = append(out, c.Clone())
	}
	return out
}
