package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landgrid/internal/auction/models"
	"landgrid/pkg/domain"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/platform/tx"
)

// Postgres persists auction records in PostgreSQL. Writes participate in a
// context-carried transaction when one is present.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed auction store.
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

const auctionColumns = `plot_id, seller_id, kind, start_price, end_price,
	duration_seconds, started_at, rental_duration_seconds`

func (s *Postgres) Create(ctx context.Context, a *models.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (plot_id) DO NOTHING`
	res, err := s.q(ctx).ExecContext(ctx, query,
		int64(a.PlotID), uuid.UUID(a.Seller), string(a.Kind),
		int64(a.StartPrice), int64(a.EndPrice),
		int64(a.Duration/time.Second), a.StartedAt, int64(a.RentalDuration/time.Second),
	)
	if err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id domain.PlotID) (*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE plot_id = $1`
	var (
		a               models.Auction
		plotID          int64
		seller          uuid.UUID
		kind            string
		startPrice      int64
		endPrice        int64
		durationSecs    int64
		rentalDurationS int64
	)
	err := s.q(ctx).QueryRowContext(ctx, query, int64(id)).Scan(
		&plotID, &seller, &kind, &startPrice, &endPrice,
		&durationSecs, &a.StartedAt, &rentalDurationS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get auction: %w", err)
	}
	a.PlotID = domain.PlotID(plotID)
	a.Seller = domain.AccountID(seller)
	a.Kind = models.Kind(kind)
	a.StartPrice = uint64(startPrice)
	a.EndPrice = uint64(endPrice)
	a.Duration = time.Duration(durationSecs) * time.Second
	a.RentalDuration = time.Duration(rentalDurationS) * time.Second
	return &a, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.PlotID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM auctions WHERE plot_id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete auction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete auction: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
