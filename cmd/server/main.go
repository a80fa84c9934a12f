// Command server runs the land registry API: plot claims, transfers,
// rentals, buyouts, clock auctions, and the pull-payment ledger behind them.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	accesshandler "landgrid/internal/access/handler"
	accessmodels "landgrid/internal/access/models"
	accessservice "landgrid/internal/access/service"
	statestore "landgrid/internal/access/store/state"
	auctionhandler "landgrid/internal/auction/handler"
	auctionmetrics "landgrid/internal/auction/metrics"
	auctionservice "landgrid/internal/auction/service"
	auctionstore "landgrid/internal/auction/store/auction"
	auctionbalancestore "landgrid/internal/auction/store/balance"
	"landgrid/internal/audit"
	kafkasink "landgrid/internal/audit/sink/kafka"
	auditmemory "landgrid/internal/audit/store/memory"
	auditpostgres "landgrid/internal/audit/store/postgres"
	"landgrid/internal/grid"
	jwttoken "landgrid/internal/jwt_token"
	"landgrid/internal/platform/config"
	"landgrid/internal/platform/httpserver"
	"landgrid/internal/platform/logger"
	"landgrid/internal/platform/postgres"
	platformredis "landgrid/internal/platform/redis"
	ratelimitmetrics "landgrid/internal/ratelimit/metrics"
	ratelimitmw "landgrid/internal/ratelimit/middleware"
	ratelimitmodels "landgrid/internal/ratelimit/models"
	ratelimitservice "landgrid/internal/ratelimit/service"
	"landgrid/internal/ratelimit/store/bucket"
	registryhandler "landgrid/internal/registry/handler"
	registrymetrics "landgrid/internal/registry/metrics"
	registrymodels "landgrid/internal/registry/models"
	registryservice "landgrid/internal/registry/service"
	allowancestore "landgrid/internal/registry/store/allowance"
	balancestore "landgrid/internal/registry/store/balance"
	paramsstore "landgrid/internal/registry/store/params"
	plotstore "landgrid/internal/registry/store/plot"
	httptransport "landgrid/internal/transport/http"
	"landgrid/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	g, err := grid.New(cfg.Grid.Width)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	admin := accountFromConfig(cfg.Access.Administrator, "administrator", log)
	treasurer := admin
	if cfg.Access.Treasurer != "" {
		treasurer = accountFromConfig(cfg.Access.Treasurer, "treasurer", log)
	}
	operator := accountFromConfig(cfg.Auction.Operator, "auction operator", log)

	initialParams := registrymodels.Params{
		UnclaimedPlotPrice:       cfg.Economy.UnclaimedPlotPrice,
		ClaimDividendPercentage:  cfg.Economy.ClaimDividendPercentage,
		BuyoutDividendPercentage: cfg.Economy.BuyoutDividendPercentage,
		BuyoutFeePercentage:      cfg.Economy.BuyoutFeePercentage,
	}
	if err := initialParams.Validate(); err != nil {
		return err
	}
	initialState := accessmodels.State{Administrator: admin, Treasurer: treasurer}

	// Store wiring: Postgres when configured, in-process maps otherwise.
	var (
		plots          registryservice.PlotStore
		balances       registryservice.BalanceStore
		params         registryservice.ParamsStore
		allowances     registryservice.AllowanceStore
		state          accessservice.StateStore
		auctions       auctionservice.AuctionStore
		auctionLedger  auctionservice.LedgerStore
		registryTxOpts []registryservice.Option
		auctionTxOpts  []auctionservice.Option
	)
	if db != nil {
		plots = plotstore.NewPostgres(db)
		balances = balancestore.NewPostgres(db)
		pgParams := paramsstore.NewPostgres(db)
		if err := pgParams.Seed(ctx, initialParams); err != nil {
			return err
		}
		params = pgParams
		allowances = allowancestore.NewPostgres(db)
		pgState := statestore.NewPostgres(db)
		if err := pgState.Seed(ctx, initialState); err != nil {
			return err
		}
		state = pgState
		auctions = auctionstore.NewPostgres(db)
		auctionLedger = auctionbalancestore.NewPostgres(db)

		txRunner := newPostgresTx(db)
		registryTxOpts = append(registryTxOpts, registryservice.WithTx(txRunner))
		auctionTxOpts = append(auctionTxOpts, auctionservice.WithTx(txRunner))
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		plots = plotstore.NewMemory()
		balances = balancestore.NewMemory()
		params = paramsstore.NewMemory(initialParams)
		allowances = allowancestore.NewMemory()
		state = statestore.NewMemory(initialState)
		auctions = auctionstore.NewMemory()
		auctionLedger = auctionbalancestore.NewMemory()
	}

	// Audit pipeline: always at least one store, optionally a Kafka stream.
	var auditSinks []audit.Store
	if db != nil {
		auditSinks = append(auditSinks, auditpostgres.New(db))
	} else {
		auditSinks = append(auditSinks, auditmemory.New())
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return err
		}
		defer kafkaClient.Close()
		auditSinks = append(auditSinks, kafkasink.New(kafkaClient, cfg.Kafka.Topic))
	}
	publisher := audit.NewPublisher(auditSinks,
		audit.WithLogger(log),
		audit.WithAsyncBuffer(1024),
	)
	worker := audit.NewWorker(publisher)

	accessSvc := accessservice.New(state, accessservice.WithLogger(log))

	registrySvc := registryservice.New(g, plots, balances, params, allowances, accessSvc,
		append(registryTxOpts,
			registryservice.WithLogger(log),
			registryservice.WithAuditPublisher(publisher),
			registryservice.WithMetrics(registrymetrics.New()),
			registryservice.WithMetadataURI(cfg.Grid.BaseURI, grid.URIStyleCoordinate),
			registryservice.WithBuyoutLockout(cfg.Economy.BuyoutLockout),
		)...)

	auctionSvc := auctionservice.New(operator, auctions, auctionLedger, registrySvc, accessSvc,
		append(auctionTxOpts,
			auctionservice.WithLogger(log),
			auctionservice.WithAuditPublisher(publisher),
			auctionservice.WithMetrics(auctionmetrics.New()),
			auctionservice.WithFeePercentage(cfg.Auction.FeePercentage),
		)...)

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	var buckets ratelimitservice.BucketStore
	if redisClient != nil {
		buckets = bucket.NewRedis(redisClient.Client)
	} else {
		buckets = bucket.NewMemory()
	}
	limits := ratelimitservice.New(buckets,
		ratelimitservice.WithMetrics(ratelimitmetrics.New()),
		ratelimitservice.WithLimits(map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
			ratelimitmodels.ClassRead: {Requests: cfg.RateLimit.RequestsPerMinute, Window: time.Minute},
		}),
	)
	limiter := ratelimitmw.New(limits, log)

	healthChecks := map[string]func(ctx context.Context) error{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		RateLimit:    limiter,
		Registry:     registryhandler.New(registrySvc, g, log),
		Access:       accesshandler.New(accessSvc, log),
		Auction:      auctionhandler.New(auctionSvc, log),
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting landgrid server",
		"addr", cfg.Server.Addr,
		"grid_width", cfg.Grid.Width,
		"postgres", db != nil,
		"redis", redisClient != nil,
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		if err := worker.Run(egCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// accountFromConfig parses a configured account ID, generating a fresh one
// when unset. Generated identities do not survive restarts, which breaks
// auction escrow custody, so production must configure them explicitly.
func accountFromConfig(raw, role string, log *slog.Logger) domain.AccountID {
	if raw == "" {
		id := domain.NewAccountID()
		log.Warn("account not configured, generated ephemeral identity",
			"role", role,
			"account_id", id.String(),
		)
		return id
	}
	id, err := domain.ParseAccountID(raw)
	if err != nil {
		log.Error("invalid account in configuration", "role", role, "error", err)
		os.Exit(1)
	}
	return id
}
