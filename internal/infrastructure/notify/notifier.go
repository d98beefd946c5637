package notify

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
)

type Notifier interface {
	Notify(ctx context.Context, event court.Event) error
}

// Multi delivers each event to every notifier, even when an earlier one
// fails, and combines the errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event court.Event) error {
	var combined error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			combined = crerr.CombineErrors(combined, err)
		}
	}
	return combined
}

// LogNotifier writes events to the structured log. It is always wired so
// court changes remain visible without any downstream consumer.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event court.Event) error {
	args := []any{
		"type", event.Type,
		"reason", event.Reason,
		"court_id", event.CourtID,
		"court_name", event.CourtName,
		"match_url", event.MatchURL,
		"urgent", event.Urgent,
	}
	if event.MatchNumber > 0 {
		args = append(args, "match_number", event.MatchNumber)
	}
	if event.FromCourtID > 0 {
		args = append(args, "from_court_id", event.FromCourtID)
	}
	if event.Skipped > 0 {
		args = append(args, "skipped", event.Skipped)
	}
	if len(event.SetHistory) > 0 {
		args = append(args, "set_history", event.SetHistory)
	}
	n.logger.InfoContext(ctx, "court event", args...)
	return nil
}
