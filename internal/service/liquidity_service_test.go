package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

type fakeRepo struct {
	pool      domain.Pool
	positions []domain.Position
	byAddress map[solana.PublicKey]domain.Position
}

func (f *fakeRepo) PoolByAddress(ctx context.Context, addr solana.PublicKey) (domain.Pool, error) {
	return f.pool, nil
}

func (f *fakeRepo) PositionsByWallet(ctx context.Context, pool, wallet solana.PublicKey) ([]domain.Position, error) {
	return f.positions, nil
}

func (f *fakeRepo) PositionByAddress(ctx context.Context, addr, wallet solana.PublicKey) (domain.Position, error) {
	pos, ok := f.byAddress[addr]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	if !pos.Owner.Equals(wallet) {
		return domain.Position{}, domain.ErrUnauthorized
	}
	return pos, nil
}

type fakeBuilder struct {
	depositCalls int
	claimTxs     []domain.BuiltTransaction
	closeCalls   int
}

func (f *fakeBuilder) BuildDeposit(ctx context.Context, pool domain.Pool, req domain.DepositRequest) (domain.DepositBundle, error) {
	f.depositCalls++
	wallet := solana.NewWallet()
	return domain.DepositBundle{
		PositionAddress: wallet.PublicKey(),
		EphemeralKey:    domain.EphemeralPositionKey{Position: wallet.PublicKey(), Secret: wallet.PrivateKey},
	}, nil
}

func (f *fakeBuilder) BuildClaim(ctx context.Context, pool domain.Pool, pos domain.Position, claimType domain.ClaimType) ([]domain.BuiltTransaction, error) {
	return f.claimTxs, nil
}

func (f *fakeBuilder) BuildClose(ctx context.Context, pool domain.Pool, pos domain.Position) (domain.BuiltTransaction, error) {
	f.closeCalls++
	return domain.BuiltTransaction{Label: domain.OpClosePosition}, nil
}

type fakePrices struct {
	prices map[solana.PublicKey]decimal.Decimal
	err    error
}

func (f *fakePrices) Prices(ctx context.Context, mints []solana.PublicKey) (map[solana.PublicKey]decimal.Decimal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

type fakeIdentity struct {
	identity string
	err      error
}

func (f *fakeIdentity) Identity(ctx context.Context, wallet string) (string, error) {
	return f.identity, f.err
}

func testService(repo *fakeRepo, builder *fakeBuilder, prices *fakePrices, identity *fakeIdentity) *LiquidityService {
	if prices == nil {
		prices = &fakePrices{prices: map[solana.PublicKey]decimal.Decimal{}}
	}
	if identity == nil {
		identity = &fakeIdentity{identity: "signer-1"}
	}
	return NewLiquidityService(
		repo.pool.Address,
		repo, builder, prices, identity,
		DefaultDustThresholds(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func servicePool() domain.Pool {
	return domain.Pool{
		Address:        solana.NewWallet().PublicKey(),
		TokenXMint:     solana.NewWallet().PublicKey(),
		TokenYMint:     solana.NewWallet().PublicKey(),
		TokenXDecimals: 6,
		TokenYDecimals: 9,
		BinStep:        100,
	}
}

func positionWith(owner solana.PublicKey, amountX, amountY uint64) domain.Position {
	return domain.Position{
		Address: solana.NewWallet().PublicKey(),
		Owner:   owner,
		Bins:    []domain.Bin{{BinID: 0, AmountX: amountX, AmountY: amountY}},
	}
}

func TestClosePositionRejectsResidualFunds(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	// 0.002 RHUN at 6 decimals sits above the 0.001 dust threshold.
	pos := positionWith(owner, 2000, 0)

	repo := &fakeRepo{pool: pool, byAddress: map[solana.PublicKey]domain.Position{pos.Address: pos}}
	builder := &fakeBuilder{}

	_, err := testService(repo, builder, nil, nil).ClosePosition(context.Background(), owner, pos.Address)

	var notEmpty *domain.PositionNotEmptyError
	require.ErrorAs(t, err, &notEmpty)
	assert.Equal(t, "0.002", notEmpty.RhunAmount.String())
	assert.Contains(t, err.Error(), "withdraw all liquidity")
	// The rejection is decided locally; no close transaction is built.
	assert.Zero(t, builder.closeCalls)
}

func TestClosePositionDustTolerated(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	// 0.0001 RHUN of rounding dust, no SOL.
	pos := positionWith(owner, 100, 0)

	repo := &fakeRepo{pool: pool, byAddress: map[solana.PublicKey]domain.Position{pos.Address: pos}}
	builder := &fakeBuilder{}

	built, err := testService(repo, builder, nil, nil).ClosePosition(context.Background(), owner, pos.Address)
	require.NoError(t, err)
	assert.Equal(t, domain.OpClosePosition, built.Label)
	assert.Equal(t, 1, builder.closeCalls)
}

func TestClosePositionSolResidualRejected(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	// tokenX is dust but 0.00001 SOL (10000 lamports) is above threshold.
	pos := positionWith(owner, 0, 10000)

	repo := &fakeRepo{pool: pool, byAddress: map[solana.PublicKey]domain.Position{pos.Address: pos}}

	_, err := testService(repo, &fakeBuilder{}, nil, nil).ClosePosition(context.Background(), owner, pos.Address)
	var notEmpty *domain.PositionNotEmptyError
	require.ErrorAs(t, err, &notEmpty)
	assert.Equal(t, "0.00001", notEmpty.SolAmount.String())
}

func TestDepositValidation(t *testing.T) {
	pool := servicePool()
	repo := &fakeRepo{pool: pool}
	builder := &fakeBuilder{}
	svc := testService(repo, builder, nil, nil)
	wallet := solana.NewWallet().PublicKey()

	cases := []struct {
		name  string
		req   domain.DepositRequest
		field string
	}{
		{
			name:  "missing wallet",
			req:   domain.DepositRequest{Strategy: domain.StrategySpot, BinRange: 10, AmountX: decimal.NewFromInt(1), AmountY: decimal.NewFromInt(1)},
			field: "walletAddress",
		},
		{
			name:  "unknown strategy",
			req:   domain.DepositRequest{Wallet: wallet, Strategy: "linear", BinRange: 10, AmountX: decimal.NewFromInt(1), AmountY: decimal.NewFromInt(1)},
			field: "strategy",
		},
		{
			name:  "bin range too large",
			req:   domain.DepositRequest{Wallet: wallet, Strategy: domain.StrategySpot, BinRange: 51, AmountX: decimal.NewFromInt(1), AmountY: decimal.NewFromInt(1)},
			field: "binRange",
		},
		{
			name:  "zero amount",
			req:   domain.DepositRequest{Wallet: wallet, Strategy: domain.StrategySpot, BinRange: 10, AmountY: decimal.NewFromInt(1)},
			field: "tokenXAmount",
		},
		{
			name:  "missing counter amount without autofill",
			req:   domain.DepositRequest{Wallet: wallet, Strategy: domain.StrategySpot, BinRange: 10, AmountX: decimal.NewFromInt(1)},
			field: "tokenYAmount",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Deposit(context.Background(), tc.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Zero(t, builder.depositCalls)
}

func TestDepositAutoFillSkipsCounterAmount(t *testing.T) {
	pool := servicePool()
	repo := &fakeRepo{pool: pool}
	builder := &fakeBuilder{}

	_, err := testService(repo, builder, nil, nil).Deposit(context.Background(), domain.DepositRequest{
		Wallet:   solana.NewWallet().PublicKey(),
		Strategy: domain.StrategyCurve,
		BinRange: 10,
		AmountX:  decimal.NewFromInt(5),
		AutoFill: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, builder.depositCalls)
}

func TestDepositUnauthorized(t *testing.T) {
	pool := servicePool()
	repo := &fakeRepo{pool: pool}
	builder := &fakeBuilder{}
	svc := testService(repo, builder, nil, &fakeIdentity{identity: ""})

	_, err := svc.Deposit(context.Background(), domain.DepositRequest{
		Wallet:   solana.NewWallet().PublicKey(),
		Strategy: domain.StrategySpot,
		BinRange: 10,
		AmountX:  decimal.NewFromInt(1),
		AmountY:  decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, builder.depositCalls)
}

func TestClaimAggregatesAmounts(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	posA := positionWith(owner, 0, 0)
	posA.Bins[0].FeeX = 100_000 // 0.1 RHUN
	posB := positionWith(owner, 0, 0)
	posB.Bins[0].FeeY = 60_000_000 // 0.06 SOL
	posB.Bins[0].Rewards = [2]uint64{400, 0}

	repo := &fakeRepo{pool: pool, positions: []domain.Position{posA, posB}}
	builder := &fakeBuilder{claimTxs: []domain.BuiltTransaction{{Label: domain.OpClaimSwapFees}}}

	plan, err := testService(repo, builder, nil, nil).Claim(context.Background(), domain.ClaimRequest{
		Wallet: owner,
		Type:   domain.ClaimTypeAll,
	})
	require.NoError(t, err)

	// One claim transaction per position from the builder fake.
	assert.Len(t, plan.Transactions, 2)
	assert.Equal(t, "0.1", plan.Amounts.SwapFeeX.String())
	assert.Equal(t, "0.06", plan.Amounts.SwapFeeY.String())
	assert.Equal(t, uint64(400), plan.Amounts.Rewards[0])

	// The builder produced only swap-fee transactions, so the requested
	// reward sub-operation is reported skipped, not failed.
	assert.Equal(t, []string{domain.OpClaimRewards}, plan.Skipped)
}

func TestClaimInvalidType(t *testing.T) {
	pool := servicePool()
	repo := &fakeRepo{pool: pool}

	_, err := testService(repo, &fakeBuilder{}, nil, nil).Claim(context.Background(), domain.ClaimRequest{
		Wallet: solana.NewWallet().PublicKey(),
		Type:   "everything",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "claimType", verr.Field)
}

func TestFeesDegradesWithoutPrices(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	pos := positionWith(owner, 0, 0)
	pos.Bins[0].FeeX = 100_000

	repo := &fakeRepo{pool: pool, positions: []domain.Position{pos}}
	svc := testService(repo, &fakeBuilder{}, &fakePrices{err: errors.New("oracle down")}, nil)

	summary, err := svc.Fees(context.Background(), owner)
	require.NoError(t, err)

	assert.True(t, summary.PriceIncomplete)
	assert.True(t, summary.TotalSwapFeesUSD.IsZero())
	require.Len(t, summary.Positions, 1)
	// The fee amounts themselves are still reported; only USD valuation
	// degrades.
	assert.Equal(t, "0.1", summary.Positions[0].SwapFeeX.String())
}

func TestFeesWithPrices(t *testing.T) {
	pool := servicePool()
	owner := solana.NewWallet().PublicKey()
	pos := positionWith(owner, 0, 0)
	pos.Bins[0].FeeX = 100_000 // 0.1 RHUN

	repo := &fakeRepo{pool: pool, positions: []domain.Position{pos}}
	prices := &fakePrices{prices: map[solana.PublicKey]decimal.Decimal{
		pool.TokenXMint: decimal.RequireFromString("0.05"),
		pool.TokenYMint: decimal.RequireFromString("150"),
	}}

	summary, err := testService(repo, &fakeBuilder{}, prices, nil).Fees(context.Background(), owner)
	require.NoError(t, err)

	assert.False(t, summary.PriceIncomplete)
	assert.Equal(t, "0.005", summary.TotalSwapFeesUSD.String())
}
