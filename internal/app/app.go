// Package app provides the top-level application lifecycle management for
// the liquidity server. It wires together all dependencies (ledger adapters,
// stores, caches, services, and the HTTP/WebSocket surface) and runs them
// until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/config"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server/handler"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the
// WebSocket hub and HTTP server, and blocks until the context is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("port", a.cfg.Server.Port),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	srv := server.NewServer(
		server.Config{
			Port:              a.cfg.Server.Port,
			CORSOrigins:       a.cfg.Server.CORSOrigins,
			APIKey:            a.cfg.Server.APIKey,
			RateLimitRequests: a.cfg.Server.RateLimitRequests,
			RateLimitWindow:   a.cfg.Server.RateLimitWindow.Duration,
		},
		server.Handlers{
			Health:       handler.NewHealthHandler(a.logger),
			Liquidity:    handler.NewLiquidityHandler(deps.Liquidity, a.logger),
			Transactions: handler.NewTransactionHandler(deps.Submissions, a.logger),
		},
		deps.Hub,
		deps.RateLimiter,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Hub.Run(ctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// RunClaim executes a claim for the configured server-side wallet and
// returns once every sub-transaction reached a terminal state. This is the
// operational path; the HTTP surface hands unsigned plans to clients
// instead.
func (a *App) RunClaim(ctx context.Context, claimType string) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if deps.Orchestrator == nil {
		return fmt.Errorf("app: claim requires solana.wallet_private_key to be configured")
	}

	outcomes, err := deps.Orchestrator.ExecuteClaim(ctx, domain.ClaimRequest{
		Wallet: deps.WalletAddress,
		Type:   domain.ClaimType(claimType),
	})
	if err != nil {
		return fmt.Errorf("app: claim: %w", err)
	}
	if len(outcomes) == 0 {
		a.logger.InfoContext(ctx, "nothing to claim", slog.String("wallet", deps.WalletAddress.String()))
		return nil
	}
	for _, out := range outcomes {
		a.logger.InfoContext(ctx, "claim outcome",
			slog.String("label", out.Label),
			slog.String("signature", out.Signature),
			slog.String("state", string(out.State)),
			slog.String("error", out.Error),
		)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
