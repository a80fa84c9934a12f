package allowance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landgrid/pkg/domain"
	"landgrid/pkg/platform/tx"
)

// Postgres persists free-claim allowances in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed allowance store.
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

func (s *Postgres) Get(ctx context.Context, account domain.AccountID) (uint64, error) {
	var n int64
	query := `SELECT remaining FROM free_claim_allowances WHERE account_id = $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(account)).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get allowance: %w", err)
	}
	return uint64(n), nil
}

func (s *Postgres) Set(ctx context.Context, account domain.AccountID, n uint64) error {
	if n == 0 {
		query := `DELETE FROM free_claim_allowances WHERE account_id = $1`
		if _, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(account)); err != nil {
			return fmt.Errorf("clear allowance: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO free_claim_allowances (account_id, remaining) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET remaining = EXCLUDED.remaining`
	if _, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(account), int64(n)); err != nil {
		return fmt.Errorf("set allowance: %w", err)
	}
	return nil
}
