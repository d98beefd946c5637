package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshMetadata_UpdatesResolvedNames(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	placeholder := ref(2)
	placeholder.Team1 = "Winner of Match 1"
	placeholder.Team2 = "Seed 4"
	f.queue(t, 1, ref(1), placeholder, ref(3))

	f.source.set(matchURL(2), `[{"players":"Kim / Cho","seed":"2"},{"teamName":""}]`)
	f.source.fail(matchURL(3), errors.New("timeout"))

	updated := f.engine.RefreshMetadata(context.Background())
	require.Equal(t, 1, updated)

	c := f.court(t, 1)
	assert.Equal(t, "Kim / Cho", c.Queue[1].Team1)
	assert.Equal(t, "2", c.Queue[1].Team1Seed)
	assert.Equal(t, "Seed 4", c.Queue[1].Team2, "unresolved upstream names keep the placeholder")
	assert.Zero(t, f.source.count(matchURL(1)), "the active match is refreshed by polling, not by this pass")
}

func TestRefreshMetadata_SkipsCourtsNotPolling(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	f.queue(t, 1, ref(1), ref(2))
	_, err := f.engine.Stop(context.Background(), 1)
	require.NoError(t, err)
	f.source.set(matchURL(2), `[{"players":"X"},{"players":"Y"}]`)

	assert.Zero(t, f.engine.RefreshMetadata(context.Background()))
	assert.Zero(t, f.source.count(matchURL(2)))
}

func TestRefreshMetadata_EmptyPlayerListsKeepPlaceholders(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	placeholder := ref(2)
	placeholder.Team1 = "Winner of Match 5"
	placeholder.Team2 = "Loser of Match 6"
	f.queue(t, 1, ref(1), placeholder)

	f.source.set(matchURL(2), `[{"players":[],"game1":0},{"players":[{"name":"Ana"},{"name":"Bea"}]}]`)

	require.Equal(t, 1, f.engine.RefreshMetadata(context.Background()))

	c := f.court(t, 1)
	assert.Equal(t, "Winner of Match 5", c.Queue[1].Team1)
	assert.Equal(t, "Ana / Bea", c.Queue[1].Team2)
}
