package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

const (
	payloadPreMatch   = `[{"players":"Alpha / Ace"},{"players":"Bravo / Bash"}]`
	payloadFinalEmpty = `{"status":"Final","score":{"home":0,"away":0}}`
)

// teamPairPayload renders the array shape with per-set scores.
func teamPairPayload(sets ...[2]int) string {
	var a, b []string
	a = append(a, `"players":"Alpha / Ace"`)
	b = append(b, `"players":"Bravo / Bash"`)
	for i, set := range sets {
		a = append(a, fmt.Sprintf(`"game%d":%d`, i+1, set[0]))
		b = append(b, fmt.Sprintf(`"game%d":%d`, i+1, set[1]))
	}
	return fmt.Sprintf(`[{%s},{%s}]`, strings.Join(a, ","), strings.Join(b, ","))
}

type fakeSource struct {
	mu       sync.Mutex
	payloads map[string]string
	errs     map[string]error
	calls    map[string]int
	onGet    func(url string)
	panicOn  string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: make(map[string]string),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeSource) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	payload, ok := f.payloads[url]
	err := f.errs[url]
	hook := f.onGet
	panicOn := f.panicOn
	f.mu.Unlock()

	if panicOn != "" && panicOn == url {
		panic("upstream decoder exploded")
	}
	if hook != nil {
		hook(url)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no payload for %s", url)
	}
	return []byte(payload), nil
}

func (f *fakeSource) set(url, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[url] = payload
	delete(f.errs, url)
}

func (f *fakeSource) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeSource) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 7, 11, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMapper struct {
	mu     sync.Mutex
	labels map[string]int
}

func (m *fakeMapper) Lookup(label string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.labels[label]
	return id, ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []court.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event court.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) snapshot() []court.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]court.Event(nil), n.events...)
}

func matchURL(n int) string {
	return fmt.Sprintf("https://scores.example.com/matches/%d/vmix?bracket=true", n)
}

func ref(n int) match.MatchRef {
	return match.MatchRef{
		URL:         matchURL(n),
		MatchNumber: n,
		Team1:       fmt.Sprintf("Team %dA", n),
		Team2:       fmt.Sprintf("Team %dB", n),
	}
}

type engineFixture struct {
	engine *Engine
	source *fakeSource
	clock  *testClock
	mapper *fakeMapper
}

func newEngineFixture(t *testing.T, mutate ...func(*EngineConfig, *EngineDeps)) engineFixture {
	t.Helper()

	f := engineFixture{
		source: newFakeSource(),
		clock:  newTestClock(),
		mapper: &fakeMapper{labels: map[string]int{}},
	}
	cfg := DefaultEngineConfig()
	cfg.CourtCount = 3
	deps := EngineDeps{
		Source: f.source,
		Mapper: f.mapper,
		Logger: logging.NewNop(),
		Now:    f.clock.Now,
	}
	for _, fn := range mutate {
		fn(&cfg, &deps)
	}

	engine, err := NewEngine(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	f.engine = engine
	return f
}

// queue loads refs onto a court and starts polling it.
func (f engineFixture) queue(t *testing.T, courtID int, refs ...match.MatchRef) {
	t.Helper()
	_, err := f.engine.ReplaceQueue(context.Background(), courtID, refs)
	require.NoError(t, err)
	_, err = f.engine.Start(context.Background(), courtID)
	require.NoError(t, err)
}

func (f engineFixture) court(t *testing.T, courtID int) court.Court {
	t.Helper()
	c, err := f.engine.Court(courtID)
	require.NoError(t, err)
	return c
}

func (f engineFixture) changes(t *testing.T, courtID int) []court.Event {
	t.Helper()
	events, err := f.engine.ChangeLog(courtID)
	require.NoError(t, err)
	return events
}

func activeIndex(c court.Court) int {
	if c.ActiveIndex == nil {
		return -1
	}
	return *c.ActiveIndex
}

func TestNewEngine_RequiresSource(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(DefaultEngineConfig(), EngineDeps{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewEngine_CreatesDefaultCourts(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	courts := f.engine.Courts()
	require.Len(t, courts, 3)
	for i, c := range courts {
		require.Equal(t, i+1, c.ID)
		require.Equal(t, court.DefaultName(i+1), c.Name)
		require.Equal(t, court.StatusIdle, c.Status)
		require.Nil(t, c.ActiveIndex)
	}
}
