package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	qb "github.com/riskibarqy/courtsync/internal/platform/querybuilder"
)

type CourtRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCourtRepository(db *sqlx.DB) *CourtRepository {
	return &CourtRepository{db: db, now: time.Now}
}

func (r *CourtRepository) Load(ctx context.Context) ([]court.Court, error) {
	query, args, err := qb.Select("id", "name", "status", "polling", "state", "updated_at").
		From(courtsTable).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select courts query: %w", err)
	}

	var rows []courtTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select courts: %w", err)
	}

	out := make([]court.Court, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCourt()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Save replaces the stored court list with courts in one transaction.
func (r *CourtRepository) Save(ctx context.Context, courts []court.Court) error {
	statements, err := buildSaveStatements(courts, r.now())
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save courts: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range statements {
		if err := execStatement(ctx, tx, stmt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save courts tx: %w", err)
	}
	return nil
}

type statement struct {
	label string
	query string
	args  []any
}

func execStatement(ctx context.Context, tx *sqlx.Tx, stmt statement) error {
	if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
		return fmt.Errorf("%s: %w", stmt.label, err)
	}
	return nil
}

func buildSaveStatements(courts []court.Court, now time.Time) ([]statement, error) {
	out := make([]statement, 0, len(courts)+1)
	keep := make([]any, 0, len(courts))
	for _, c := range courts {
		model, err := toCourtModel(c, now)
		if err != nil {
			return nil, err
		}
		set, err := qb.ExcludedAssignments(model, "id")
		if err != nil {
			return nil, fmt.Errorf("build upsert court assignments: %w", err)
		}
		query, args, err := qb.InsertModel(courtsTable, model, "ON CONFLICT (id) DO UPDATE SET "+set)
		if err != nil {
			return nil, fmt.Errorf("build upsert court query: %w", err)
		}
		out = append(out, statement{
			label: fmt.Sprintf("upsert court id=%d", c.ID),
			query: query,
			args:  args,
		})
		keep = append(keep, c.ID)
	}

	query, args, err := qb.DeleteFrom(courtsTable).Where(qb.NotIn("id", keep)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build prune courts query: %w", err)
	}
	out = append(out, statement{label: "prune removed courts", query: query, args: args})
	return out, nil
}
