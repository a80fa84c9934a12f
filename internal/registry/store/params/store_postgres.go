package params

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landgrid/internal/registry/models"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/platform/tx"
)

// Postgres persists the single params row in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed params store.
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

// Seed inserts the initial params row if none exists yet.
func (s *Postgres) Seed(ctx context.Context, initial models.Params) error {
	query := `
		INSERT INTO registry_params (id, unclaimed_plot_price, claim_dividend_pct, buyout_dividend_pct, buyout_fee_pct)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.q(ctx).ExecContext(ctx, query,
		int64(initial.UnclaimedPlotPrice), int64(initial.ClaimDividendPercentage),
		int64(initial.BuyoutDividendPercentage), int64(initial.BuyoutFeePercentage),
	)
	if err != nil {
		return fmt.Errorf("seed registry params: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (models.Params, error) {
	var (
		p     models.Params
		price, claimPct, buyoutPct, feePct int64
	)
	query := `
		SELECT unclaimed_plot_price, claim_dividend_pct, buyout_dividend_pct, buyout_fee_pct
		FROM registry_params WHERE id = 1`
	if err := s.q(ctx).QueryRowContext(ctx, query).Scan(&price, &claimPct, &buyoutPct, &feePct); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Params{}, sentinel.ErrNotFound
		}
		return models.Params{}, fmt.Errorf("get registry params: %w", err)
	}
	p.UnclaimedPlotPrice = uint64(price)
	p.ClaimDividendPercentage = uint64(claimPct)
	p.BuyoutDividendPercentage = uint64(buyoutPct)
	p.BuyoutFeePercentage = uint64(feePct)
	return p, nil
}

func (s *Postgres) Put(ctx context.Context, p models.Params) error {
	query := `
		UPDATE registry_params SET
			unclaimed_plot_price = $1, claim_dividend_pct = $2,
			buyout_dividend_pct = $3, buyout_fee_pct = $4
		WHERE id = 1`
	res, err := s.q(ctx).ExecContext(ctx, query,
		int64(p.UnclaimedPlotPrice), int64(p.ClaimDividendPercentage),
		int64(p.BuyoutDividendPercentage), int64(p.BuyoutFeePercentage),
	)
	if err != nil {
		return fmt.Errorf("update registry params: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registry params: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
