// Package service orchestrates the liquidity transaction pipeline: request
// validation, pool and position reads, transaction building, submission,
// and confirmation tracking.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/accounting"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// PositionReader loads pools and positions from the ledger.
type PositionReader interface {
	PoolByAddress(ctx context.Context, addr solana.PublicKey) (domain.Pool, error)
	PositionsByWallet(ctx context.Context, pool, wallet solana.PublicKey) ([]domain.Position, error)
	PositionByAddress(ctx context.Context, addr, wallet solana.PublicKey) (domain.Position, error)
}

// TransactionBuilder composes unsigned transactions for the pipeline's
// operations.
type TransactionBuilder interface {
	BuildDeposit(ctx context.Context, pool domain.Pool, req domain.DepositRequest) (domain.DepositBundle, error)
	BuildClaim(ctx context.Context, pool domain.Pool, pos domain.Position, claimType domain.ClaimType) ([]domain.BuiltTransaction, error)
	BuildClose(ctx context.Context, pool domain.Pool, pos domain.Position) (domain.BuiltTransaction, error)
}

// DustThresholds bound the residual human-unit amounts below which a
// position counts as empty for closing purposes. Residue below the
// threshold is rounding dust from the program's integer share math, not
// withdrawable funds.
type DustThresholds struct {
	TokenX decimal.Decimal
	TokenY decimal.Decimal
}

// DefaultDustThresholds returns the production thresholds: 0.001 RHUN and
// 0.000001 SOL.
func DefaultDustThresholds() DustThresholds {
	return DustThresholds{
		TokenX: decimal.RequireFromString("0.001"),
		TokenY: decimal.RequireFromString("0.000001"),
	}
}

// LiquidityService serves the read-and-build half of the pipeline: fee
// accounting, deposit bundles, claim plans, and close transactions. All
// transactions leave here unsigned.
type LiquidityService struct {
	pool     solana.PublicKey
	repo     PositionReader
	builder  TransactionBuilder
	prices   domain.PriceSource
	identity domain.IdentityResolver
	dust     DustThresholds
	logger   *slog.Logger
}

// NewLiquidityService creates the service bound to one pool.
func NewLiquidityService(
	pool solana.PublicKey,
	repo PositionReader,
	builder TransactionBuilder,
	prices domain.PriceSource,
	identity domain.IdentityResolver,
	dust DustThresholds,
	logger *slog.Logger,
) *LiquidityService {
	return &LiquidityService{
		pool:     pool,
		repo:     repo,
		builder:  builder,
		prices:   prices,
		identity: identity,
		dust:     dust,
		logger:   logger.With(slog.String("component", "liquidity")),
	}
}

// Deposit validates the request and builds the open-position-and-deposit
// bundle. The ephemeral key inside the bundle is single-use; the caller
// forwards it once and drops it.
func (s *LiquidityService) Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositBundle, error) {
	if err := validateDeposit(req); err != nil {
		return domain.DepositBundle{}, err
	}
	if err := s.authorize(ctx, req.Wallet); err != nil {
		return domain.DepositBundle{}, err
	}

	pool, err := s.repo.PoolByAddress(ctx, s.poolFor(req.Pool))
	if err != nil {
		return domain.DepositBundle{}, err
	}

	bundle, err := s.builder.BuildDeposit(ctx, pool, req)
	if err != nil {
		return domain.DepositBundle{}, err
	}
	s.logger.InfoContext(ctx, "deposit bundle built",
		slog.String("wallet", req.Wallet.String()),
		slog.String("position", bundle.PositionAddress.String()),
		slog.String("strategy", string(req.Strategy)),
	)
	return bundle, nil
}

// ClaimAmounts are the exact pending amounts a claim plan would collect.
// Fee legs are human units; rewards stay in native units because reward
// mint decimals are not tracked by the pool account.
type ClaimAmounts struct {
	SwapFeeX decimal.Decimal `json:"swapFeeX"`
	SwapFeeY decimal.Decimal `json:"swapFeeY"`
	Rewards  [2]uint64       `json:"rewards"`
}

// ClaimPlan is the response to a claim request: the unsigned transactions
// and the amounts they collect. Positions with nothing to claim contribute
// no transactions; an all-empty plan is valid and carries none.
type ClaimPlan struct {
	Transactions []domain.BuiltTransaction
	Amounts      ClaimAmounts

	// Skipped names the requested sub-operations that produced no
	// transaction because nothing was pending. Skipping is a success
	// outcome, not a failure.
	Skipped []string
}

// Claim validates the request and builds claim transactions for every
// position it covers. When req.Positions is empty the plan spans all of the
// wallet's positions in the pool.
func (s *LiquidityService) Claim(ctx context.Context, req domain.ClaimRequest) (ClaimPlan, error) {
	if !req.Type.Valid() {
		return ClaimPlan{}, &domain.ValidationError{Field: "claimType", Reason: fmt.Sprintf("%q is not one of swap, lm, all", req.Type)}
	}
	if req.Wallet.IsZero() {
		return ClaimPlan{}, &domain.ValidationError{Field: "walletAddress", Reason: "missing"}
	}
	if err := s.authorize(ctx, req.Wallet); err != nil {
		return ClaimPlan{}, err
	}

	pool, err := s.repo.PoolByAddress(ctx, s.poolFor(req.Pool))
	if err != nil {
		return ClaimPlan{}, err
	}

	positions, err := s.claimTargets(ctx, pool, req)
	if err != nil {
		return ClaimPlan{}, err
	}

	var plan ClaimPlan
	for _, pos := range positions {
		txs, err := s.builder.BuildClaim(ctx, pool, pos, req.Type)
		if err != nil {
			return ClaimPlan{}, err
		}
		plan.Transactions = append(plan.Transactions, txs...)

		if req.Type == domain.ClaimTypeSwap || req.Type == domain.ClaimTypeAll {
			feeX, feeY := pos.PendingFees()
			plan.Amounts.SwapFeeX = plan.Amounts.SwapFeeX.Add(domain.HumanAmount(feeX, pool.TokenXDecimals))
			plan.Amounts.SwapFeeY = plan.Amounts.SwapFeeY.Add(domain.HumanAmount(feeY, pool.TokenYDecimals))
		}
		if req.Type == domain.ClaimTypeLM || req.Type == domain.ClaimTypeAll {
			pending := pos.PendingRewards()
			plan.Amounts.Rewards[0] += pending[0]
			plan.Amounts.Rewards[1] += pending[1]
		}
	}

	produced := map[string]bool{}
	for _, built := range plan.Transactions {
		produced[built.Label] = true
	}
	if (req.Type == domain.ClaimTypeSwap || req.Type == domain.ClaimTypeAll) && !produced[domain.OpClaimSwapFees] {
		plan.Skipped = append(plan.Skipped, domain.OpClaimSwapFees)
	}
	if (req.Type == domain.ClaimTypeLM || req.Type == domain.ClaimTypeAll) && !produced[domain.OpClaimRewards] {
		plan.Skipped = append(plan.Skipped, domain.OpClaimRewards)
	}
	return plan, nil
}

// Fees summarizes pending swap fees and liquidity-mining rewards across the
// wallet's positions, valued in USD. A missing price degrades the affected
// entries to zero and flags the summary instead of failing.
func (s *LiquidityService) Fees(ctx context.Context, wallet solana.PublicKey) (accounting.PortfolioSummary, error) {
	if wallet.IsZero() {
		return accounting.PortfolioSummary{}, &domain.ValidationError{Field: "wallet", Reason: "missing"}
	}

	pool, err := s.repo.PoolByAddress(ctx, s.pool)
	if err != nil {
		return accounting.PortfolioSummary{}, err
	}
	positions, err := s.repo.PositionsByWallet(ctx, pool.Address, wallet)
	if err != nil {
		return accounting.PortfolioSummary{}, err
	}

	prices := s.lookupPrices(ctx, pool)
	return accounting.Summarize(pool, positions, prices), nil
}

// ClosePosition verifies the position is empty and builds the close
// transaction. Residual amounts above the dust thresholds reject the
// request locally with the measured amounts; the ledger is never asked to
// try.
func (s *LiquidityService) ClosePosition(ctx context.Context, wallet, positionAddr solana.PublicKey) (domain.BuiltTransaction, error) {
	if wallet.IsZero() {
		return domain.BuiltTransaction{}, &domain.ValidationError{Field: "walletAddress", Reason: "missing"}
	}
	if positionAddr.IsZero() {
		return domain.BuiltTransaction{}, &domain.ValidationError{Field: "positionAddress", Reason: "missing"}
	}
	if err := s.authorize(ctx, wallet); err != nil {
		return domain.BuiltTransaction{}, err
	}

	pool, err := s.repo.PoolByAddress(ctx, s.pool)
	if err != nil {
		return domain.BuiltTransaction{}, err
	}
	pos, err := s.repo.PositionByAddress(ctx, positionAddr, wallet)
	if err != nil {
		return domain.BuiltTransaction{}, err
	}

	rhun := domain.HumanAmount(pos.TotalAmountX(), pool.TokenXDecimals)
	sol := domain.HumanAmount(pos.TotalAmountY(), pool.TokenYDecimals)
	if rhun.GreaterThanOrEqual(s.dust.TokenX) || sol.GreaterThanOrEqual(s.dust.TokenY) {
		return domain.BuiltTransaction{}, &domain.PositionNotEmptyError{
			Position:   pos.Address,
			RhunAmount: rhun,
			SolAmount:  sol,
		}
	}

	built, err := s.builder.BuildClose(ctx, pool, pos)
	if err != nil {
		return domain.BuiltTransaction{}, err
	}
	s.logger.InfoContext(ctx, "close transaction built",
		slog.String("wallet", wallet.String()),
		slog.String("position", positionAddr.String()),
	)
	return built, nil
}

// Positions returns the wallet's hydrated positions in the configured pool.
func (s *LiquidityService) Positions(ctx context.Context, wallet solana.PublicKey) ([]domain.Position, error) {
	if wallet.IsZero() {
		return nil, &domain.ValidationError{Field: "wallet", Reason: "missing"}
	}
	pool, err := s.repo.PoolByAddress(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	return s.repo.PositionsByWallet(ctx, pool.Address, wallet)
}

func (s *LiquidityService) poolFor(requested solana.PublicKey) solana.PublicKey {
	if requested.IsZero() {
		return s.pool
	}
	return requested
}

func (s *LiquidityService) claimTargets(ctx context.Context, pool domain.Pool, req domain.ClaimRequest) ([]domain.Position, error) {
	if len(req.Positions) == 0 {
		return s.repo.PositionsByWallet(ctx, pool.Address, req.Wallet)
	}
	positions := make([]domain.Position, 0, len(req.Positions))
	for _, addr := range req.Positions {
		pos, err := s.repo.PositionByAddress(ctx, addr, req.Wallet)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// authorize resolves the wallet's signer identity. Staleness from the cache
// layer is acceptable here; the lookup gates building, never fund movement.
func (s *LiquidityService) authorize(ctx context.Context, wallet solana.PublicKey) error {
	identity, err := s.identity.Identity(ctx, wallet.String())
	if err != nil {
		return fmt.Errorf("service: resolve identity for %s: %w", wallet, domain.ErrUnauthorized)
	}
	if identity == "" {
		return fmt.Errorf("service: no signer identity for %s: %w", wallet, domain.ErrUnauthorized)
	}
	return nil
}

// lookupPrices fetches USD prices for the pool's mints. Oracle failure
// degrades to an empty map; accounting then reports zero values and flags
// the summary as incomplete.
func (s *LiquidityService) lookupPrices(ctx context.Context, pool domain.Pool) map[solana.PublicKey]decimal.Decimal {
	mints := []solana.PublicKey{pool.TokenXMint, pool.TokenYMint}
	for _, mint := range pool.RewardMints {
		if !mint.IsZero() {
			mints = append(mints, mint)
		}
	}
	prices, err := s.prices.Prices(ctx, mints)
	if err != nil {
		s.logger.WarnContext(ctx, "price lookup failed; reporting zero values",
			slog.String("error", err.Error()))
		return map[solana.PublicKey]decimal.Decimal{}
	}
	return prices
}

func validateDeposit(req domain.DepositRequest) error {
	if req.Wallet.IsZero() {
		return &domain.ValidationError{Field: "walletAddress", Reason: "missing"}
	}
	if !req.Strategy.Valid() {
		return &domain.ValidationError{Field: "strategy", Reason: fmt.Sprintf("%q is not one of spot, bidask, curve", req.Strategy)}
	}
	if req.BinRange < domain.MinBinRange || req.BinRange > domain.MaxBinRange {
		return &domain.ValidationError{Field: "binRange", Reason: fmt.Sprintf("must be between %d and %d", domain.MinBinRange, domain.MaxBinRange)}
	}
	if req.AmountX.Sign() <= 0 {
		return &domain.ValidationError{Field: "tokenXAmount", Reason: "amount must be positive"}
	}
	if !req.AutoFill && req.AmountY.Sign() <= 0 {
		return &domain.ValidationError{Field: "tokenYAmount", Reason: "amount must be positive unless autoFill is set"}
	}
	return nil
}
