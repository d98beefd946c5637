package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	qb "github.com/riskibarqy/courtsync/internal/platform/querybuilder"
)

const courtMapTable = "court_map"

type courtMapTableModel struct {
	Label     string    `db:"label"`
	CourtID   int       `db:"court_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

type CourtMapRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCourtMapRepository(db *sqlx.DB) *CourtMapRepository {
	return &CourtMapRepository{db: db, now: time.Now}
}

func (r *CourtMapRepository) LoadMappings(ctx context.Context) ([]court.Mapping, error) {
	query, args, err := qb.Select("label", "court_id", "updated_at").
		From(courtMapTable).
		OrderBy("label").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select court map query: %w", err)
	}

	var rows []courtMapTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select court map: %w", err)
	}

	out := make([]court.Mapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, court.Mapping{Label: row.Label, CourtID: row.CourtID})
	}
	return out, nil
}

func (r *CourtMapRepository) SaveMappings(ctx context.Context, mappings []court.Mapping) error {
	statements, err := buildMappingStatements(mappings, r.now())
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save court map: %w", err)
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
		return fmt.Errorf("commit save court map tx: %w", err)
	}
	return nil
}

func buildMappingStatements(mappings []court.Mapping, now time.Time) ([]statement, error) {
	out := make([]statement, 0, len(mappings)+1)
	keep := make([]any, 0, len(mappings))
	for _, m := range mappings {
		model := courtMapTableModel{Label: m.Label, CourtID: m.CourtID, UpdatedAt: now.UTC()}
		query, args, err := qb.InsertModel(courtMapTable, model, `ON CONFLICT (label)
DO UPDATE SET
    court_id = EXCLUDED.court_id,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return nil, fmt.Errorf("build upsert court map query: %w", err)
		}
		out = append(out, statement{
			label: fmt.Sprintf("upsert court map label=%q", m.Label),
			query: query,
			args:  args,
		})
		keep = append(keep, m.Label)
	}

	query, args, err := qb.DeleteFrom(courtMapTable).Where(qb.NotIn("label", keep)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build prune court map query: %w", err)
	}
	out = append(out, statement{label: "prune court map", query: query, args: args})
	return out, nil
}
