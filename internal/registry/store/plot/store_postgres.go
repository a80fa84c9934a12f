package plot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/platform/tx"
)

// Postgres persists plots in PostgreSQL. Writes participate in a
// context-carried transaction when one is present.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed plot store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) dbtx {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const plotColumns = `id, owner_id, renter_id, rent_period_end, created_at,
	name, description, image_url, info_url,
	buyout_price, has_been_bought_out, pending_approval`

func (s *Postgres) Create(ctx context.Context, p *models.Plot) error {
	query := `
		INSERT INTO plots (` + plotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`
	res, err := s.q(ctx).ExecContext(ctx, query,
		int64(p.ID), uuid.UUID(p.Owner), nullAccount(p.Renter), nullTime(p.RentPeriodEnd), p.CreatedAt,
		p.Metadata.Name, p.Metadata.Description, p.Metadata.ImageURL, p.Metadata.InfoURL,
		int64(p.BuyoutPrice), p.HasBeenBoughtOut, nullAccount(p.PendingApproval),
	)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id domain.PlotID) (*models.Plot, error) {
	query := `SELECT ` + plotColumns + ` FROM plots WHERE id = $1`
	p, err := scanPlot(s.q(ctx).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get plot: %w", err)
	}
	return p, nil
}

func (s *Postgres) GetMany(ctx context.Context, ids []domain.PlotID) (map[domain.PlotID]*models.Plot, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	query := `SELECT ` + plotColumns + ` FROM plots WHERE id = ANY($1)`
	rows, err := s.q(ctx).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("get plots: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.PlotID]*models.Plot, len(ids))
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, fmt.Errorf("get plots: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get plots: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, p *models.Plot) error {
	query := `
		UPDATE plots SET
			owner_id = $2, renter_id = $3, rent_period_end = $4,
			name = $5, description = $6, image_url = $7, info_url = $8,
			buyout_price = $9, has_been_bought_out = $10, pending_approval = $11
		WHERE id = $1`
	res, err := s.q(ctx).ExecContext(ctx, query,
		int64(p.ID), uuid.UUID(p.Owner), nullAccount(p.Renter), nullTime(p.RentPeriodEnd),
		p.Metadata.Name, p.Metadata.Description, p.Metadata.ImageURL, p.Metadata.InfoURL,
		int64(p.BuyoutPrice), p.HasBeenBoughtOut, nullAccount(p.PendingApproval),
	)
	if err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM plots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count plots: %w", err)
	}
	return uint64(n), nil
}

func (s *Postgres) CountByOwner(ctx context.Context, owner domain.AccountID) (uint64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM plots WHERE owner_id = $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(owner)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count plots by owner: %w", err)
	}
	return uint64(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlot(row rowScanner) (*models.Plot, error) {
	var (
		p             models.Plot
		id            int64
		owner         uuid.UUID
		renter        uuid.NullUUID
		rentPeriodEnd sql.NullTime
		buyoutPrice   int64
		approval      uuid.NullUUID
	)
	err := row.Scan(&id, &owner, &renter, &rentPeriodEnd, &p.CreatedAt,
		&p.Metadata.Name, &p.Metadata.Description, &p.Metadata.ImageURL, &p.Metadata.InfoURL,
		&buyoutPrice, &p.HasBeenBoughtOut, &approval,
	)
	if err != nil {
		return nil, err
	}
	p.ID = domain.PlotID(id)
	p.Owner = domain.AccountID(owner)
	p.BuyoutPrice = uint64(buyoutPrice)
	if renter.Valid {
		p.Renter = domain.AccountID(renter.UUID)
	}
	if rentPeriodEnd.Valid {
		p.RentPeriodEnd = rentPeriodEnd.Time
	}
	if approval.Valid {
		p.PendingApproval = domain.AccountID(approval.UUID)
	}
	return &p, nil
}

func nullAccount(a domain.AccountID) uuid.NullUUID {
	if a.IsZero() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(a), Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
