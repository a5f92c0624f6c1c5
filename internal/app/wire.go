package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/cache/redis"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/config"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/ledger"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/oracle"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/position"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/relay"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server/ws"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/service"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/store/postgres"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/txbuilder"
)

// Dependencies bundles every domain-level dependency the application needs
// to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Ledger adapters
	Ledger    *ledger.Client
	Submitter *ledger.Submitter
	Tracker   *ledger.Tracker

	// Pipeline
	Repository  *position.Repository
	Builder     *txbuilder.Builder
	Prices      domain.PriceSource
	Identity    domain.IdentityResolver
	Liquidity   *service.LiquidityService
	Submissions *service.SubmissionService

	// Orchestrator is only set when a server-side wallet key is
	// configured; the HTTP surface never needs it.
	Orchestrator  *service.ClaimOrchestrator
	WalletAddress solana.PublicKey

	// Infrastructure
	SignalBus       domain.SignalBus
	SubmissionStore domain.SubmissionStore
	RateLimiter     domain.RateLimiter
	Hub             *ws.Hub
}

// commitmentFromString maps a config commitment name to the RPC type. The
// config has already been validated, so unknown values fall back to
// confirmed.
func commitmentFromString(name string) solanarpc.CommitmentType {
	switch name {
	case "processed":
		return solanarpc.CommitmentProcessed
	case "finalized":
		return solanarpc.CommitmentFinalized
	default:
		return solanarpc.CommitmentConfirmed
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Solana ledger ---
	pool, err := solana.PublicKeyFromBase58(cfg.Solana.PoolAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: pool address: %w", err)
	}
	deps.Ledger = ledger.New(cfg.Solana.RPCEndpoint, logger,
		ledger.WithCommitment(commitmentFromString(cfg.Solana.Commitment)),
		ledger.WithCallTimeout(cfg.Solana.CallTimeout.Duration),
	)

	// --- PostgreSQL audit store ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.SubmissionStore = postgres.NewSubmissionStore(pgClient.Pool())

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.Identity = redis.NewIdentityCache(
		redisClient,
		relay.NewSelfIdentityResolver(),
		cfg.Oracle.IdentityTTL.Duration,
		logger,
	)

	// --- Pipeline services ---
	deps.Prices = oracle.NewJupiterClient(cfg.Oracle.PriceURL, logger)
	deps.Repository = position.NewRepository(deps.Ledger, logger)
	deps.Builder = txbuilder.NewBuilder(deps.Ledger, logger)

	dust, err := dustFromConfig(cfg.Dust)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: dust thresholds: %w", err)
	}
	deps.Liquidity = service.NewLiquidityService(
		pool, deps.Repository, deps.Builder, deps.Prices, deps.Identity, dust, logger,
	)

	deps.Submitter = ledger.NewSubmitter(deps.Ledger, logger)
	deps.Tracker = ledger.NewTracker(deps.Ledger, ledger.TrackerConfig{
		PollInterval: cfg.Tracker.PollInterval.Duration,
		MaxAttempts:  cfg.Tracker.MaxAttempts,
	}, deps.SignalBus, logger)
	deps.Submissions = service.NewSubmissionService(
		deps.Submitter, deps.Tracker, deps.SubmissionStore, logger,
	)

	// --- Server-side signer (optional) ---
	if cfg.Solana.WalletPrivateKey != "" {
		key, err := solana.PrivateKeyFromBase58(cfg.Solana.WalletPrivateKey)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
		}
		signer := relay.NewRelay(relay.NewWalletSigner(key), logger)
		deps.Orchestrator = service.NewClaimOrchestrator(
			deps.Liquidity, signer, deps.Submissions, logger,
		)
		deps.WalletAddress = key.PublicKey()
	}

	// --- WebSocket hub ---
	deps.Hub = ws.NewHub(deps.SignalBus, logger)

	return deps, cleanup, nil
}

// dustFromConfig parses the configured threshold strings.
func dustFromConfig(cfg config.DustConfig) (service.DustThresholds, error) {
	x, err := decimal.NewFromString(cfg.TokenX)
	if err != nil {
		return service.DustThresholds{}, fmt.Errorf("token_x %q: %w", cfg.TokenX, err)
	}
	y, err := decimal.NewFromString(cfg.TokenY)
	if err != nil {
		return service.DustThresholds{}, fmt.Errorf("token_y %q: %w", cfg.TokenY, err)
	}
	return service.DustThresholds{TokenX: x, TokenY: y}, nil
}
