// Package service implements role administration for the registry: the
// administrator and treasurer roles, two-step administrator handoff, the
// emergency pause, and the one-way upgrade pointer.
package service

import (
	"context"
	"log/slog"
	"strings"

	"landgrid/internal/access/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// StateStore persists the single administrative state record.
type StateStore interface {
	Get(ctx context.Context) (models.State, error)
	Put(ctx context.Context, s models.State) error
}

// Service guards every privileged operation of the registry and auctions.
type Service struct {
	store  StateStore
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(store StateStore, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current administrative state.
func (s *Service) State(ctx context.Context) (models.State, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return models.State{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access state")
	}
	return st, nil
}

// RequireNotPaused rejects the call while the emergency stop is active.
func (s *Service) RequireNotPaused(ctx context.Context) error {
	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if st.Paused {
		return dErrors.New(dErrors.CodePaused, "registry is paused")
	}
	return nil
}

// RequireAdministrator rejects callers other than the administrator.
func (s *Service) RequireAdministrator(ctx context.Context, caller domain.AccountID) error {
	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != st.Administrator {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the administrator")
	}
	return nil
}

// RequireTreasurer rejects callers other than the treasurer.
func (s *Service) RequireTreasurer(ctx context.Context, caller domain.AccountID) error {
	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != st.Treasurer {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the treasurer")
	}
	return nil
}

// TransferOwnership starts the two-step administrator handoff by recording
// the designated successor. Nothing changes until the successor claims.
func (s *Service) TransferOwnership(ctx context.Context, caller, to domain.AccountID) error {
	if err := s.RequireAdministrator(ctx, caller); err != nil {
		return err
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "successor must not be the null identity")
	}

	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	st.PendingAdministrator = to
	if err := s.store.Put(ctx, st); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record pending administrator")
	}

	s.logger.InfoContext(ctx, "administrator handoff started",
		"pending_administrator", to.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ClaimOwnership commits a pending administrator handoff. Only the recorded
// successor may claim.
func (s *Service) ClaimOwnership(ctx context.Context, caller domain.AccountID) error {
	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if st.PendingAdministrator.IsZero() {
		return dErrors.New(dErrors.CodeNotFound, "no pending ownership transfer")
	}
	if caller != st.PendingAdministrator {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the pending administrator")
	}

	st.Administrator = caller
	st.PendingAdministrator = domain.AccountID{}
	if err := s.store.Put(ctx, st); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit administrator handoff")
	}

	s.logger.InfoContext(ctx, "administrator handoff committed",
		"administrator", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// SetTreasurer assigns the treasurer role. Administrator only; there is no
// two-step handoff for this role.
func (s *Service) SetTreasurer(ctx context.Context, caller, to domain.AccountID) error {
	if err := s.RequireAdministrator(ctx, caller); err != nil {
		return err
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "treasurer must not be the null identity")
	}

	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	st.Treasurer = to
	if err := s.store.Put(ctx, st); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set treasurer")
	}
	return nil
}

// Pause activates the emergency stop.
func (s *Service) Pause(ctx context.Context, caller domain.AccountID) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause lifts the emergency stop.
func (s *Service) Unpause(ctx context.Context, caller domain.AccountID) error {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller domain.AccountID, paused bool) error {
	if err := s.RequireAdministrator(ctx, caller); err != nil {
		return err
	}

	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if st.Paused == paused {
		if paused {
			return dErrors.New(dErrors.CodeConflict, "registry is already paused")
		}
		return dErrors.New(dErrors.CodeConflict, "registry is not paused")
	}

	st.Paused = paused
	if err := s.store.Put(ctx, st); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pause state")
	}

	s.logger.InfoContext(ctx, "pause state changed",
		"paused", paused,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// SetUpgradedTarget records the successor deployment. Settable once, only
// while paused; the pointer is advisory and triggers no migration.
func (s *Service) SetUpgradedTarget(ctx context.Context, caller domain.AccountID, target string) error {
	if err := s.RequireAdministrator(ctx, caller); err != nil {
		return err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return dErrors.New(dErrors.CodeValidation, "upgrade target is required")
	}

	st, err := s.State(ctx)
	if err != nil {
		return err
	}
	if !st.Paused {
		return dErrors.New(dErrors.CodeConflict, "upgrade target can only be set while paused")
	}
	if st.UpgradedTo != "" {
		return dErrors.New(dErrors.CodeConflict, "upgrade target is already set")
	}

	st.UpgradedTo = target
	if err := s.store.Put(ctx, st); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set upgrade target")
	}

	s.logger.InfoContext(ctx, "upgrade target set",
		"upgraded_to", target,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
