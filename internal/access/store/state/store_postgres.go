package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landgrid/internal/access/models"
	"landgrid/pkg/domain"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/platform/tx"
)

// Postgres persists the single administrative state row in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed state store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) dbtx {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Seed inserts the initial state row if none exists yet.
func (s *Postgres) Seed(ctx context.Context, initial models.State) error {
	query := `
		INSERT INTO access_state (id, administrator, pending_administrator, treasurer, paused, upgraded_to)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(initial.Administrator), nullAccount(initial.PendingAdministrator),
		nullAccount(initial.Treasurer), initial.Paused, initial.UpgradedTo,
	)
	if err != nil {
		return fmt.Errorf("seed access state: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (models.State, error) {
	var (
		st      models.State
		admin   uuid.UUID
		pending uuid.NullUUID
		treas   uuid.NullUUID
	)
	query := `
		SELECT administrator, pending_administrator, treasurer, paused, upgraded_to
		FROM access_state WHERE id = 1`
	if err := s.q(ctx).QueryRowContext(ctx, query).Scan(&admin, &pending, &treas, &st.Paused, &st.UpgradedTo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.State{}, sentinel.ErrNotFound
		}
		return models.State{}, fmt.Errorf("get access state: %w", err)
	}
	st.Administrator = domain.AccountID(admin)
	if pending.Valid {
		st.PendingAdministrator = domain.AccountID(pending.UUID)
	}
	if treas.Valid {
		st.Treasurer = domain.AccountID(treas.UUID)
	}
	return st, nil
}

func (s *Postgres) Put(ctx context.Context, st models.State) error {
	query := `
		UPDATE access_state SET
			administrator = $1, pending_administrator = $2, treasurer = $3,
			paused = $4, upgraded_to = $5
		WHERE id = 1`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(st.Administrator), nullAccount(st.PendingAdministrator),
		nullAccount(st.Treasurer), st.Paused, st.UpgradedTo,
	)
	if err != nil {
		return fmt.Errorf("update access state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access state: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullAccount(a domain.AccountID) uuid.NullUUID {
	if a.IsZero() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(a), Valid: true}
}
