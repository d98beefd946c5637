package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourtRepositorySaveLoad(t *testing.T) {
	t.Parallel()

	repo := NewCourtRepository(nil)
	ctx := context.Background()

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	c := court.New(1)
	c.Queue = []match.MatchRef{{URL: "https://scores.example.com/matches/1"}}
	c.ActiveIndex = court.IntPtr(0)
	require.NoError(t, repo.Save(ctx, []court.Court{c}))
	assert.Equal(t, 1, repo.Saves())

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.Queue, got[0].Queue)
}

func TestCourtRepositoryIsolatesCallers(t *testing.T) {
	t.Parallel()

	c := court.New(2)
	c.Queue = []match.MatchRef{{URL: "https://scores.example.com/matches/5"}}
	repo := NewCourtRepository([]court.Court{c})

	c.Queue[0].URL = "mutated"
	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://scores.example.com/matches/5", got[0].Queue[0].URL)

	got[0].Queue[0].URL = "mutated again"
	again, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://scores.example.com/matches/5", again[0].Queue[0].URL)
}
