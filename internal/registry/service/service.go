// Package service implements the plot ledger: claiming, transfer, rental,
// buyout, dividend distribution, and the pull-payment balance ledger.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"landgrid/internal/audit"
	"landgrid/internal/grid"
	registrymetrics "landgrid/internal/registry/metrics"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
)

// PlotStore persists claimed plot records.
type PlotStore interface {
	Create(ctx context.Context, p *models.Plot) error
	Get(ctx context.Context, id domain.PlotID) (*models.Plot, error)
	GetMany(ctx context.Context, ids []domain.PlotID) (map[domain.PlotID]*models.Plot, error)
	Update(ctx context.Context, p *models.Plot) error
	Count(ctx context.Context) (uint64, error)
	CountByOwner(ctx context.Context, owner domain.AccountID) (uint64, error)
}

// BalanceStore persists the pull-payment ledger.
type BalanceStore interface {
	Credit(ctx context.Context, account domain.AccountID, amount uint64) error
	Balance(ctx context.Context, account domain.AccountID) (uint64, error)
	Withdraw(ctx context.Context, account domain.AccountID) (uint64, error)
	CreditProtocol(ctx context.Context, amount uint64) error
	ProtocolBalance(ctx context.Context) (uint64, error)
	WithdrawProtocol(ctx context.Context) (uint64, error)
	OutstandingTotal(ctx context.Context) (uint64, error)
}

// ParamsStore persists the treasurer-mutable economic configuration.
type ParamsStore interface {
	Get(ctx context.Context) (models.Params, error)
	Put(ctx context.Context, p models.Params) error
}

// AllowanceStore persists per-account free-claim allowances.
type AllowanceStore interface {
	Get(ctx context.Context, account domain.AccountID) (uint64, error)
	Set(ctx context.Context, account domain.AccountID, n uint64) error
}

// AccessGuard gates privileged and pausable operations.
type AccessGuard interface {
	RequireNotPaused(ctx context.Context) error
	RequireAdministrator(ctx context.Context, caller domain.AccountID) error
	RequireTreasurer(ctx context.Context, caller domain.AccountID) error
}

// AuditPublisher records state transitions for external indexers.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// StoreTx runs a function inside one storage transaction so multi-store
// mutations commit or roll back together.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// Service is the plot ledger. Every mutating operation runs under one mutex,
// which realizes the serialized-call execution model: a call either fully
// commits or leaves no trace.
type Service struct {
	grid       *grid.Grid
	plots      PlotStore
	balances   BalanceStore
	params     ParamsStore
	allowances AllowanceStore
	access     AccessGuard

	audit   AuditPublisher
	logger  *slog.Logger
	metrics *registrymetrics.Metrics
	tx      StoreTx

	baseURI  string
	uriStyle grid.URIStyle

	// buyoutLockout is the window after a claim during which the plot cannot
	// be bought out. Zero disables the lockout.
	buyoutLockout time.Duration

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

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithMetadataURI configures the base path and style of plot metadata URIs.
func WithMetadataURI(base string, style grid.URIStyle) Option {
	return func(s *Service) {
		s.baseURI = base
		s.uriStyle = style
	}
}

// WithBuyoutLockout delays the first possible buyout of a freshly claimed plot.
func WithBuyoutLockout(d time.Duration) Option {
	return func(s *Service) {
		s.buyoutLockout = d
	}
}

// New constructs the registry service.
func New(g *grid.Grid, plots PlotStore, balances BalanceStore, params ParamsStore, allowances AllowanceStore, access AccessGuard, opts ...Option) *Service {
	s := &Service{
		grid:       g,
		plots:      plots,
		balances:   balances,
		params:     params,
		allowances: allowances,
		access:     access,
		logger:     slog.Default(),
		tx:         noopTx{},
		baseURI:    "https://landgrid.example/plot",
		uriStyle:   grid.URIStyleCoordinate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grid exposes the coordinate codec backing this ledger.
func (s *Service) Grid() *grid.Grid {
	return s.grid
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
