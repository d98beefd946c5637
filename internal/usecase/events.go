package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
)

// Notifier delivers engine events to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, event court.Event) error
}

const (
	eventBuffer        = 256
	eventNotifyTimeout = 10 * time.Second
)

// eventDispatcher hands events to the notifier off the polling path. Events
// are dropped, not queued without bound, when the notifier falls behind.
type eventDispatcher struct {
	notifier Notifier
	logger   *logging.Logger
	queue    chan court.Event
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newEventDispatcher(notifier Notifier, logger *logging.Logger) *eventDispatcher {
	d := &eventDispatcher{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan court.Event, eventBuffer),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *eventDispatcher) Publish(event court.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed || d.notifier == nil {
		return
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event dropped, notifier backlog full", "type", event.Type, "court_id", event.CourtID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *eventDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *eventDispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), eventNotifyTimeout)
		if err := d.notifier.Notify(ctx, event); err != nil {
			d.logger.Warn("event delivery failed",
				"type", event.Type,
				"reason", event.Reason,
				"court_id", event.CourtID,
				"error", err,
			)
		}
		cancel()
	}
}

// emitLocked records the event in the court's change log and queues it for
// delivery. Caller must hold e.mu.
func (e *Engine) emitLocked(cs *courtState, event court.Event) {
	if event.CourtID == 0 {
		event.CourtID = cs.court.ID
	}
	if event.CourtName == "" {
		event.CourtName = cs.court.Name
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}

	cs.changes = append(cs.changes, event)
	if over := len(cs.changes) - e.cfg.ChangeLogSize; over > 0 {
		cs.changes = append([]court.Event(nil), cs.changes[over:]...)
	}
	e.events.Publish(event)
}

func courtChange(reason string, ref match.MatchRef) court.Event {
	return court.Event{
		Type:        court.EventCourtChange,
		Reason:      reason,
		MatchURL:    ref.URL,
		MatchNumber: ref.MatchNumber,
		Team1:       ref.Team1,
		Team2:       ref.Team2,
	}
}
