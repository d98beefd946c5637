package courtmap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/riskibarqy/courtsync/internal/domain/court"
)

// Store holds the operator-maintained physical court to slot mapping. Reads
// are served from memory; writes go through the repository first.
type Store struct {
	mu    sync.RWMutex
	byKey map[string]court.Mapping
	repo  court.MappingRepository
}

func NewStore(repo court.MappingRepository) *Store {
	return &Store{
		byKey: make(map[string]court.Mapping),
		repo:  repo,
	}
}

// Load replaces the in-memory map with the repository contents. A non-empty
// seed is applied and saved when the repository holds nothing yet.
func (s *Store) Load(ctx context.Context, seed []court.Mapping) error {
	var stored []court.Mapping
	if s.repo != nil {
		var err error
		stored, err = s.repo.LoadMappings(ctx)
		if err != nil {
			return fmt.Errorf("load court map: %w", err)
		}
	}
	if len(stored) == 0 && len(seed) > 0 {
		return s.Replace(ctx, seed)
	}

	s.mu.Lock()
	s.byKey = index(stored)
	s.mu.Unlock()
	return nil
}

func (s *Store) Lookup(label string) (int, bool) {
	key := court.NormalizeLabel(label)
	if key == "" {
		return 0, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byKey[key]
	if !ok {
		return 0, false
	}
	return m.CourtID, true
}

// All returns the mapping sorted by label.
func (s *Store) All() []court.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]court.Mapping, 0, len(s.byKey))
	for _, m := range s.byKey {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Replace swaps the whole mapping. Labels are normalized; the last entry for
// a duplicate label wins.
func (s *Store) Replace(ctx context.Context, mappings []court.Mapping) error {
	next := index(mappings)
	for _, m := range next {
		if m.CourtID <= 0 {
			return fmt.Errorf("%w: court id for %q must be positive", ErrInvalidMapping, m.Label)
		}
	}

	normalized := make([]court.Mapping, 0, len(next))
	for _, m := range next {
		normalized = append(normalized, m)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Label < normalized[j].Label })

	if s.repo != nil {
		if err := s.repo.SaveMappings(ctx, normalized); err != nil {
			return fmt.Errorf("save court map: %w", err)
		}
	}

	s.mu.Lock()
	s.byKey = next
	s.mu.Unlock()
	return nil
}

var ErrInvalidMapping = errors.New("invalid court mapping")

// Parse reads "label:id,label:id". Labels may contain spaces but not commas
// or colons.
func Parse(raw string) ([]court.Mapping, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []court.Mapping
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, idText, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not label:id", ErrInvalidMapping, part)
		}
		label = court.NormalizeLabel(label)
		if label == "" {
			return nil, fmt.Errorf("%w: empty label in %q", ErrInvalidMapping, part)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: bad court id in %q", ErrInvalidMapping, part)
		}
		out = append(out, court.Mapping{Label: label, CourtID: id})
	}
	return out, nil
}

func index(mappings []court.Mapping) map[string]court.Mapping {
	out := make(map[string]court.Mapping, len(mappings))
	for _, m := range mappings {
		key := court.NormalizeLabel(m.Label)
		if key == "" {
			continue
		}
		out[key] = court.Mapping{Label: key, CourtID: m.CourtID}
	}
	return out
}
