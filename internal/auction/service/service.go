// Package service implements descending clock auctions over registry plots.
// The service acts as an escrow: it takes custody of the plot for the life of
// the auction and settles custody, rental, and proceeds on conclusion.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	auctionmetrics "landgrid/internal/auction/metrics"
	"landgrid/internal/auction/models"
	"landgrid/internal/audit"
	"landgrid/pkg/domain"
)

// AuctionStore persists active auction records.
type AuctionStore interface {
	Create(ctx context.Context, a *models.Auction) error
	Get(ctx context.Context, id domain.PlotID) (*models.Auction, error)
	Delete(ctx context.Context, id domain.PlotID) error
}

// LedgerStore persists the escrow's pull-payment ledger.
type LedgerStore interface {
	Credit(ctx context.Context, account domain.AccountID, amount uint64) error
	Balance(ctx context.Context, account domain.AccountID) (uint64, error)
	Withdraw(ctx context.Context, account domain.AccountID) (uint64, error)
	CreditFree(ctx context.Context, amount uint64) error
	FreeBalance(ctx context.Context) (uint64, error)
	WithdrawFree(ctx context.Context) (uint64, error)
}

// AssetLedger is the registry custody surface the escrow operates through.
type AssetLedger interface {
	OwnerOf(ctx context.Context, id domain.PlotID) (domain.AccountID, error)
	IsApprovedForCustody(ctx context.Context, id domain.PlotID, operator domain.AccountID) (bool, error)
	TransferCustodyIn(ctx context.Context, operator, from domain.AccountID, id domain.PlotID) error
	TransferCustodyOut(ctx context.Context, operator, to domain.AccountID, id domain.PlotID) error
	GrantRental(ctx context.Context, operator, renter domain.AccountID, duration time.Duration, id domain.PlotID) error
	CreditBeneficiary(ctx context.Context, amount uint64) error
}

// AccessGuard gates privileged and pausable operations.
type AccessGuard interface {
	RequireNotPaused(ctx context.Context) error
	RequireAdministrator(ctx context.Context, caller domain.AccountID) error
}

// AuditPublisher records state transitions for external indexers.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// StoreTx runs a function inside one storage transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// Service is the auction escrow. The operator identity is the account under
// which escrowed plots are held in the registry; it must stay stable across
// restarts or live auctions become unrecoverable.
type Service struct {
	operator domain.AccountID
	auctions AuctionStore
	ledger   LedgerStore
	assets   AssetLedger
	access   AccessGuard

	audit   AuditPublisher
	logger  *slog.Logger
	metrics *auctionmetrics.Metrics
	tx      StoreTx

	// feePct is the cut retained from winning bids, parts per 100000.
	// Guarded by mu alongside all auction state.
	feePct uint64

	mu sync.Mutex
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *auctionmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithFeePercentage overrides the default fee cut, in parts per 100000.
func WithFeePercentage(pct uint64) Option {
	return func(s *Service) {
		s.feePct = pct
	}
}

// New constructs the auction escrow service.
func New(operator domain.AccountID, auctions AuctionStore, ledger LedgerStore, assets AssetLedger, access AccessGuard, opts ...Option) *Service {
	s := &Service{
		operator: operator,
		auctions: auctions,
		ledger:   ledger,
		assets:   assets,
		access:   access,
		logger:   slog.Default(),
		tx:       noopTx{},
		feePct:   models.DefaultFeePercentage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operator returns the escrow's account identity.
func (s *Service) Operator() domain.AccountID {
	return s.operator
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}

// mutate serializes a mutating call and wraps it in one storage transaction.
func (s *Service) mutate(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx.RunInTx(ctx, fn)
}
