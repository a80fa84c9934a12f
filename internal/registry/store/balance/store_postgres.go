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

// The protocol treasury is stored as a reserved row keyed by the nil UUID,
// which is never a valid account identifier.
var protocolRow = uuid.Nil

// Postgres persists balances in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed balance store.
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
		INSERT INTO balances (account_id, amount) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`
	if _, err := s.q(ctx).ExecContext(ctx, query, row, int64(amount)); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

func (s *Postgres) balance(ctx context.Context, row uuid.UUID) (uint64, error) {
	var amount int64
	query := `SELECT amount FROM balances WHERE account_id = $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, row).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return uint64(amount), nil
}

func (s *Postgres) withdraw(ctx context.Context, row uuid.UUID) (uint64, error) {
	var amount int64
	query := `DELETE FROM balances WHERE account_id = $1 RETURNING amount`
	if err := s.q(ctx).QueryRowContext(ctx, query, row).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("withdraw balance: %w", err)
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

func (s *Postgres) CreditProtocol(ctx context.Context, amount uint64) error {
	return s.credit(ctx, protocolRow, amount)
}

func (s *Postgres) ProtocolBalance(ctx context.Context) (uint64, error) {
	return s.balance(ctx, protocolRow)
}

func (s *Postgres) WithdrawProtocol(ctx context.Context) (uint64, error) {
	return s.withdraw(ctx, protocolRow)
}

func (s *Postgres) OutstandingTotal(ctx context.Context) (uint64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM balances WHERE account_id <> $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, protocolRow).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum outstanding balances: %w", err)
	}
	return uint64(total), nil
}
