//go:build integration

package balance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"landgrid/internal/registry/store/balance"
	"landgrid/pkg/domain"
	"landgrid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *balance.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = balance.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "balances"))
}

func (s *PostgresStoreSuite) TestCreditAccumulates() {
	ctx := context.Background()
	account := domain.NewAccountID()

	s.Require().NoError(s.store.Credit(ctx, account, 3500))
	s.Require().NoError(s.store.Credit(ctx, account, 1562))

	owed, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(5062), owed)
}

func (s *PostgresStoreSuite) TestWithdrawEmptiesBalance() {
	ctx := context.Background()
	account := domain.NewAccountID()
	s.Require().NoError(s.store.Credit(ctx, account, 228750))

	amount, err := s.store.Withdraw(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(228750), amount)

	owed, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Zero(owed)

	amount, err = s.store.Withdraw(ctx, account)
	s.Require().NoError(err)
	s.Zero(amount)
}

func (s *PostgresStoreSuite) TestProtocolLedgerIsSeparate() {
	ctx := context.Background()
	account := domain.NewAccountID()

	s.Require().NoError(s.store.Credit(ctx, account, 1000))
	s.Require().NoError(s.store.CreditProtocol(ctx, 8750))

	protocol, err := s.store.ProtocolBalance(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(8750), protocol)

	outstanding, err := s.store.OutstandingTotal(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1000), outstanding, "protocol funds are not owed to accounts")

	amount, err := s.store.WithdrawProtocol(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(8750), amount)

	owed, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(1000), owed, "protocol withdrawal must not touch account balances")
}

// TestConcurrentCredits verifies the upsert never loses a dividend under
// contention.
func (s *PostgresStoreSuite) TestConcurrentCredits() {
	ctx := context.Background()
	account := domain.NewAccountID()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Require().NoError(s.store.Credit(ctx, account, 10))
		}()
	}
	wg.Wait()

	owed, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Equal(uint64(goroutines*10), owed)
}
