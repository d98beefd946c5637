package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/riskibarqy/courtsync/internal/platform/metrics"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// PayloadSource returns the raw upstream payload for a match URL. The
// production source is the short-TTL response cache.
type PayloadSource interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// CourtMapper resolves a physical court label to the slot it is mapped to.
type CourtMapper interface {
	Lookup(label string) (courtID int, ok bool)
}

type EngineConfig struct {
	CourtCount             int
	PollInterval           time.Duration
	PollStagger            time.Duration
	WatchdogInterval       time.Duration
	WatchdogStallThreshold time.Duration
	StaleTimeout           time.Duration
	PostMatchHold          time.Duration
	SmartSwitchInterval    time.Duration
	SmartSwitchMaxProbes   int
	ReassignInterval       time.Duration
	MetadataRefreshEvery   time.Duration
	MetadataRefreshWorkers int
	PersistDebounce        time.Duration
	ChangeLogSize          int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CourtCount:             10,
		PollInterval:           2500 * time.Millisecond,
		PollStagger:            250 * time.Millisecond,
		WatchdogInterval:       30 * time.Second,
		WatchdogStallThreshold: 30 * time.Second,
		StaleTimeout:           15 * time.Minute,
		PostMatchHold:          3 * time.Minute,
		SmartSwitchInterval:    30 * time.Second,
		SmartSwitchMaxProbes:   4,
		ReassignInterval:       60 * time.Second,
		MetadataRefreshEvery:   60 * time.Second,
		MetadataRefreshWorkers: 4,
		PersistDebounce:        2 * time.Second,
		ChangeLogSize:          50,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.CourtCount < 1 {
		c.CourtCount = d.CourtCount
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollStagger < 0 {
		c.PollStagger = 0
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = d.WatchdogInterval
	}
	if c.WatchdogStallThreshold <= 0 {
		c.WatchdogStallThreshold = d.WatchdogStallThreshold
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = d.StaleTimeout
	}
	if c.PostMatchHold < 0 {
		c.PostMatchHold = 0
	}
	if c.SmartSwitchInterval <= 0 {
		c.SmartSwitchInterval = d.SmartSwitchInterval
	}
	if c.SmartSwitchMaxProbes < 1 {
		c.SmartSwitchMaxProbes = d.SmartSwitchMaxProbes
	}
	if c.ReassignInterval <= 0 {
		c.ReassignInterval = d.ReassignInterval
	}
	if c.MetadataRefreshEvery <= 0 {
		c.MetadataRefreshEvery = d.MetadataRefreshEvery
	}
	if c.MetadataRefreshWorkers < 1 {
		c.MetadataRefreshWorkers = d.MetadataRefreshWorkers
	}
	if c.PersistDebounce <= 0 {
		c.PersistDebounce = d.PersistDebounce
	}
	if c.ChangeLogSize < 1 {
		c.ChangeLogSize = d.ChangeLogSize
	}
	return c
}

type EngineDeps struct {
	Source       PayloadSource
	Repository   court.Repository
	Notifier     Notifier
	Mapper       CourtMapper
	Metrics      *metrics.Metrics
	Logger       *logging.Logger
	PoolDetector match.PoolDetector
	Now          func() time.Time
}

// courtState is everything the engine tracks for one slot. All fields except
// inFlight are guarded by Engine.mu.
type courtState struct {
	court        court.Court
	gen          uint64
	tracker      matchTracker
	probeLimiter *rate.Limiter
	changes      []court.Event
	inFlight     atomic.Bool
}

// resetMatchState is the single reset point for per-match tracking. It also
// invalidates any in-flight cycle for the slot.
func (cs *courtState) resetMatchState() {
	cs.resetMatchStateKeepSnapshot()
	cs.court.Snapshot = nil
	cs.court.FinishedAt = nil
	cs.court.ErrorMessage = ""
}

// resetMatchStateKeepSnapshot leaves the last scoreboard and finish time in
// place, for a court whose queue ran out.
func (cs *courtState) resetMatchStateKeepSnapshot() {
	cs.tracker = matchTracker{}
	cs.court.LiveSince = nil
	cs.gen++
}

// Engine owns every court slot. Mutations are serialized through mu; network
// calls are made without holding it.
type Engine struct {
	cfg        EngineConfig
	source     PayloadSource
	mapper     CourtMapper
	repo       court.Repository
	events     *eventDispatcher
	persist    *persister
	metrics    *metrics.Metrics
	logger     *logging.Logger
	detectPool match.PoolDetector
	now        func() time.Time

	mu     sync.Mutex
	courts map[int]*courtState
	ids    []int

	sched     *scheduler
	closeOnce sync.Once
}

func NewEngine(cfg EngineConfig, deps EngineDeps) (*Engine, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("%w: payload source is required", ErrInvalidInput)
	}
	cfg = cfg.withDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	detect := deps.PoolDetector
	if detect == nil {
		detect = match.DefaultPoolDetector
	}

	e := &Engine{
		cfg:        cfg,
		source:     deps.Source,
		mapper:     deps.Mapper,
		repo:       deps.Repository,
		metrics:    deps.Metrics,
		logger:     logger.Named("engine"),
		detectPool: detect,
		now:        now,
		courts:     make(map[int]*courtState, cfg.CourtCount),
		sched:      newScheduler(),
	}
	e.events = newEventDispatcher(deps.Notifier, e.logger)
	e.persist = newPersister(deps.Repository, cfg.PersistDebounce, e.Courts, e.logger)

	courts := make([]court.Court, 0, cfg.CourtCount)
	for id := 1; id <= cfg.CourtCount; id++ {
		courts = append(courts, court.New(id))
	}
	e.install(courts)
	return e, nil
}

// Restore replaces the court list with the persisted one. Courts that were
// polling resume once Run starts.
func (e *Engine) Restore(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.Restore")
	defer span.End()

	courts, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load courts: %w", err)
	}
	if len(courts) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(courts))
	for _, c := range courts {
		seen[c.ID] = true
	}
	for id := 1; id <= e.cfg.CourtCount; id++ {
		if !seen[id] {
			courts = append(courts, court.New(id))
		}
	}

	e.install(courts)
	e.logger.InfoContext(ctx, "restored courts", "count", len(courts))
	e.sched.mu.Lock()
	running := e.sched.base != nil
	e.sched.mu.Unlock()
	if running {
		for _, id := range e.pollingIDs() {
			e.ensureLoop(id)
		}
	}
	return nil
}

func (e *Engine) install(courts []court.Court) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.courts = make(map[int]*courtState, len(courts))
	e.ids = e.ids[:0]
	for _, c := range courts {
		if c.Queue == nil {
			c.Queue = []match.MatchRef{}
		}
		if c.ActiveIndex != nil && (*c.ActiveIndex < 0 || *c.ActiveIndex >= len(c.Queue)) {
			c.ActiveIndex = nil
		}
		if c.ActiveIndex == nil && len(c.Queue) > 0 {
			c.ActiveIndex = court.IntPtr(0)
		}
		if len(c.Queue) == 0 {
			c.Polling = false
			c.Status = court.StatusIdle
		}
		e.courts[c.ID] = &courtState{
			court:        c,
			probeLimiter: rate.NewLimiter(rate.Every(e.cfg.SmartSwitchInterval), 1),
		}
		e.ids = append(e.ids, c.ID)
	}
	sort.Ints(e.ids)
}

// Run drives polling loops, the watchdog, the reassignment pass and the
// metadata refresh pass until ctx is canceled. Pending state is flushed to
// the repository before it returns.
func (e *Engine) Run(ctx context.Context) error {
	e.sched.begin(ctx)
	for _, id := range e.pollingIDs() {
		e.ensureLoop(id)
	}
	e.logger.InfoContext(ctx, "engine started", "courts", len(e.CourtIDs()))

	var wg conc.WaitGroup
	wg.Go(func() { e.every(ctx, e.cfg.WatchdogInterval, e.watchdogSweep) })
	wg.Go(func() {
		e.every(ctx, e.cfg.ReassignInterval, func(ctx context.Context) { e.ReassignmentPass(ctx) })
	})
	wg.Go(func() {
		e.every(ctx, e.cfg.MetadataRefreshEvery, func(ctx context.Context) { e.RefreshMetadata(ctx) })
	})
	wg.Wait()

	e.sched.shutdown()
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.persist.Flush(flushCtx); err != nil {
		e.logger.Error("final court persist failed", "error", err)
	}
	e.Close()
	e.logger.Info("engine stopped")
	return nil
}

// Close stops event delivery. It is safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.persist.Stop()
		e.events.Close()
	})
}

func (e *Engine) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// Courts returns deep copies of every court ordered by id.
func (e *Engine) Courts() []court.Court {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]court.Court, 0, len(e.ids))
	for _, id := range e.ids {
		out = append(out, e.courts[id].court.Clone())
	}
	return out
}

func (e *Engine) Court(id int) (court.Court, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, ok := e.courts[id]
	if !ok {
		return court.Court{}, fmt.Errorf("%w %d", ErrCourtNotFound, id)
	}
	return cs.court.Clone(), nil
}

func (e *Engine) CourtIDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.ids...)
}

// ChangeLog returns the court's most recent events, oldest first.
func (e *Engine) ChangeLog(id int) ([]court.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, ok := e.courts[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrCourtNotFound, id)
	}
	return append([]court.Event{}, cs.changes...), nil
}

func (e *Engine) pollingIDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []int
	for _, id := range e.ids {
		if e.courts[id].court.Polling {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) isPolling(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cs, ok := e.courts[id]
	return ok && cs.court.Polling
}

func (e *Engine) formatFor(ref match.MatchRef) match.Format {
	return match.InferFormat(ref, e.detectPool)
}
