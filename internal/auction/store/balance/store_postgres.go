package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landgrid/pkg/domain"
	"landgrid/pkg/platform/tx"
)

// The free (fee) balance is stored as a reserved row keyed by the nil UUID,
// which is never a valid account identifier.
var freeRow = uuid.Nil

// Postgres persists the auction ledger in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed auction ledger.
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

func (s *Postgres) credit(ctx context.Context, row uuid.UUID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	query := `
		INSERT INTO auction_balances (account_id, amount) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET amount = auction_balances.amount + EXCLUDED.amount`
	if _, err := s.q(ctx).ExecContext(ctx, query, row, int64(amount)); err != nil {
		return fmt.Errorf("credit auction balance: %w", err)
	}
	return nil
}

func (s *Postgres) balance(ctx context.Context, row uuid.UUID) (uint64, error) {
	var amount int64
	query := `SELECT amount FROM auction_balances WHERE account_id = $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, row).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get auction balance: %w", err)
	}
	return uint64(amount), nil
}

func (s *Postgres) withdraw(ctx context.Context, row uuid.UUID) (uint64, error) {
	var amount int64
	query := `DELETE FROM auction_balances WHERE account_id = $1 RETURNING amount`
	if err := s.q(ctx).QueryRowContext(ctx, query, row).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("withdraw auction balance: %w", err)
	}
	return uint64(amount), nil
}

func (s *Postgres) Credit(ctx context.Context, account domain.AccountID, amount uint64) error {
	return s.credit(ctx, uuid.UUID(account), amount)
}

func (s *Postgres) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	return s.balance(ctx, uuid.UUID(account))
}

func (s *Postgres) Withdraw(ctx context.Context, account domain.AccountID) (uint64, error) {
	return s.withdraw(ctx, uuid.UUID(account))
}

func (s *Postgres) CreditFree(ctx context.Context, amount uint64) error {
	return s.credit(ctx, freeRow, amount)
}

func (s *Postgres) FreeBalance(ctx context.Context) (uint64, error) {
	return s.balance(ctx, freeRow)
}

func (s *Postgres) WithdrawFree(ctx context.Context) (uint64, error) {
	return s.withdraw(ctx, freeRow)
}
