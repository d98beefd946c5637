package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
)

const courtsTable = "courts"

type courtTableModel struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	Polling   bool      `db:"polling"`
	State     []byte    `db:"state"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toCourtModel(c court.Court, now time.Time) (courtTableModel, error) {
	state, err := sonic.Marshal(c)
	if err != nil {
		return courtTableModel{}, fmt.Errorf("encode court id=%d state: %w", c.ID, err)
	}
	return courtTableModel{
		ID:        c.ID,
		Name:      c.Name,
		Status:    string(c.Status),
		Polling:   c.Polling,
		State:     state,
		UpdatedAt: now.UTC(),
	}, nil
}

// toCourt trusts the row columns over the JSON document for identity and
// control flags.
func (m courtTableModel) toCourt() (court.Court, error) {
	var out court.Court
	if len(m.State) > 0 {
		if err := sonic.Unmarshal(m.State, &out); err != nil {
			return court.Court{}, fmt.Errorf("decode court id=%d state: %w", m.ID, err)
		}
	}

	out.ID = m.ID
	if m.Name != "" {
		out.Name = m.Name
	}
	if out.Name == "" {
		out.Name = court.DefaultName(m.ID)
	}
	if m.Status != "" {
		out.Status = court.Status(m.Status)
	}
	if out.Status == "" {
		out.Status = court.StatusIdle
	}
	out.Polling = m.Polling
	if out.Queue == nil {
		out.Queue = []match.MatchRef{}
	}
	return out, nil
}
