// Package postgres persists audit events for operator queries. Events are
// append-only; nothing updates or deletes a recorded transition.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"landgrid/internal/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, event_type, actor, recipient, plot_id, amount, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, string(event.Type), event.Actor, event.Recipient,
		int64(event.PlotID), int64(event.Amount), event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByPlot returns every recorded event for one plot in append order.
func (s *Store) ListByPlot(ctx context.Context, plotID uint64) ([]audit.Event, error) {
	query := `
		SELECT occurred_at, event_type, actor, recipient, plot_id, amount, request_id
		FROM audit_events WHERE plot_id = $1 ORDER BY occurred_at, id`
	rows, err := s.db.QueryContext(ctx, query, int64(plotID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			typ    string
			plot   int64
			amount int64
		)
		if err := rows.Scan(&e.Timestamp, &typ, &e.Actor, &e.Recipient, &plot, &amount, &e.RequestID); err != nil {
			return nil, fmt.Errorf("list audit events: %w", err)
		}
		e.Type = audit.EventType(typ)
		e.PlotID = uint64(plot)
		e.Amount = uint64(amount)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
