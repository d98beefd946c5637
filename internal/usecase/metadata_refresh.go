package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/courtsync/internal/domain/match"
)

type refreshTask struct {
	courtID int
	index   int
	ref     match.MatchRef
}

// RefreshMetadata re-reads queued, non-active matches on polling courts and
// copies upstream-resolved team names and seeds onto their refs. It returns
// the number of refs updated.
func (e *Engine) RefreshMetadata(ctx context.Context) int {
	ctx, span := startUsecaseSpan(ctx, "usecase.Engine.RefreshMetadata")
	defer span.End()

	tasks := e.refreshTasks()
	if len(tasks) == 0 {
		return 0
	}

	pool, err := ants.NewPool(e.cfg.MetadataRefreshWorkers)
	if err != nil {
		e.logger.ErrorContext(ctx, "create metadata refresh pool", "error", err)
		return 0
	}
	defer pool.Release()

	var (
		updated atomic.Int32
		workers sync.WaitGroup
	)
	for _, task := range tasks {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if e.refreshOne(ctx, task) {
				updated.Add(1)
			}
		}); err != nil {
			workers.Done()
			e.logger.WarnContext(ctx, "submit metadata refresh task", "court_id", task.courtID, "error", err)
		}
	}
	workers.Wait()

	count := int(updated.Load())
	if count > 0 {
		e.persist.Schedule()
		e.logger.InfoContext(ctx, "refreshed match metadata", "updated", count, "checked", len(tasks))
	}
	return count
}

func (e *Engine) refreshTasks() []refreshTask {
	e.mu.Lock()
	defer e.mu.Unlock()

	var tasks []refreshTask
	for _, id := range e.ids {
		c := e.courts[id].court
		if !c.Polling {
			continue
		}
		for i, ref := range c.Queue {
			if c.ActiveIndex != nil && *c.ActiveIndex == i {
				continue
			}
			tasks = append(tasks, refreshTask{courtID: id, index: i, ref: ref})
		}
	}
	return tasks
}

func (e *Engine) refreshOne(ctx context.Context, task refreshTask) bool {
	snap, err := e.probe(ctx, task.ref)
	if err != nil {
		e.logger.DebugContext(ctx, "metadata refresh fetch failed", "court_id", task.courtID, "url", task.ref.URL, "error", err)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cs, ok := e.courts[task.courtID]
	if !ok || task.index >= len(cs.court.Queue) {
		return false
	}
	ref := &cs.court.Queue[task.index]
	if ref.URL != task.ref.URL {
		return false
	}

	changed := false
	if snap.Team1Resolved && snap.Team1Name != ref.Team1 {
		ref.Team1 = snap.Team1Name
		changed = true
	}
	if snap.Team2Resolved && snap.Team2Name != ref.Team2 {
		ref.Team2 = snap.Team2Name
		changed = true
	}
	if snap.Team1Resolved && snap.Team1Seed != "" && snap.Team1Seed != ref.Team1Seed {
		ref.Team1Seed = snap.Team1Seed
		changed = true
	}
	if snap.Team2Resolved && snap.Team2Seed != "" && snap.Team2Seed != ref.Team2Seed {
		ref.Team2Seed = snap.Team2Seed
		changed = true
	}
	return changed
}
