package court

import "context"

// Repository persists the full court list so the engine can resume after a
// restart.
type Repository interface {
	Load(ctx context.Context) ([]Court, error)
	Save(ctx context.Context, courts []Court) error
}
