// Package txbuilder composes unsigned transactions for the liquidity
// pipeline: open-and-deposit, claim, and close. It reads the ledger only to
// discover which supporting accounts already exist and to stamp a recent
// blockhash; it never signs and never submits.
package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/shopspring/decimal"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/dlmm"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// Builder builds unsigned transactions against one pool snapshot at a time.
type Builder struct {
	ledger domain.LedgerReader
	logger *slog.Logger
}

func NewBuilder(ledger domain.LedgerReader, logger *slog.Logger) *Builder {
	return &Builder{
		ledger: ledger,
		logger: logger.With(slog.String("component", "txbuilder")),
	}
}

// strategyTypes maps the request vocabulary to the program's imbalanced
// strategy encodings; deposits carry explicit per-leg amounts, so the
// balanced variants are never used.
var strategyTypes = map[domain.Strategy]dlmm.StrategyType{
	domain.StrategySpot:   dlmm.StrategySpotImBalanced,
	domain.StrategyCurve:  dlmm.StrategyCurveImBalanced,
	domain.StrategyBidAsk: dlmm.StrategyBidAskImBalanced,
}

// BuildDeposit composes one transaction that creates a brand-new position
// account spanning binRange bins on each side of the active bin, creates any
// missing bin arrays and user token accounts, and deposits both legs by
// strategy. The returned bundle carries the ephemeral position keypair; the
// caller must forward it exactly once and drop it.
func (b *Builder) BuildDeposit(ctx context.Context, pool domain.Pool, req domain.DepositRequest) (domain.DepositBundle, error) {
	minBinID := pool.ActiveBinID - int32(req.BinRange)
	maxBinID := pool.ActiveBinID + int32(req.BinRange)
	width := maxBinID - minBinID + 1
	if width > dlmm.MaxBinPerPosition {
		return domain.DepositBundle{}, &domain.ValidationError{
			Field:  "binRange",
			Reason: fmt.Sprintf("span of %d bins exceeds the %d bins a position can cover", width, dlmm.MaxBinPerPosition),
		}
	}

	amountY := req.AmountY
	if req.AutoFill {
		amountY = dlmm.AutoFillAmountY(req.AmountX, strategyTypes[req.Strategy], minBinID, maxBinID, pool.ActiveBinID, pool.BinStep)
	}
	nativeX, err := nativeAmount(req.AmountX, pool.TokenXDecimals, "tokenXAmount")
	if err != nil {
		return domain.DepositBundle{}, err
	}
	nativeY, err := nativeAmount(amountY, pool.TokenYDecimals, "tokenYAmount")
	if err != nil {
		return domain.DepositBundle{}, err
	}

	ephemeral := solana.NewWallet()
	positionAddr := ephemeral.PublicKey()

	var instructions []solana.Instruction

	initPos, err := dlmm.NewInitializePositionInstruction(req.Wallet, positionAddr, pool.Address, req.Wallet, minBinID, width)
	if err != nil {
		return domain.DepositBundle{}, fmt.Errorf("txbuilder: initialize position: %w", err)
	}
	instructions = append(instructions, initPos)

	arrayInits, err := b.missingBinArrayInits(ctx, pool.Address, req.Wallet, minBinID, maxBinID)
	if err != nil {
		return domain.DepositBundle{}, err
	}
	instructions = append(instructions, arrayInits...)

	userTokenX, ixs, err := b.ensureTokenAccount(ctx, req.Wallet, pool.TokenXMint)
	if err != nil {
		return domain.DepositBundle{}, err
	}
	instructions = append(instructions, ixs...)
	userTokenY, ixs, err := b.ensureTokenAccount(ctx, req.Wallet, pool.TokenYMint)
	if err != nil {
		return domain.DepositBundle{}, err
	}
	instructions = append(instructions, ixs...)

	addLiq, err := dlmm.NewAddLiquidityByStrategyInstruction(dlmm.AddLiquidityAccounts{
		Position:   positionAddr,
		LbPair:     pool.Address,
		UserTokenX: userTokenX,
		UserTokenY: userTokenY,
		ReserveX:   pool.ReserveX,
		ReserveY:   pool.ReserveY,
		TokenXMint: pool.TokenXMint,
		TokenYMint: pool.TokenYMint,
		Sender:     req.Wallet,
	}, dlmm.LiquidityParameterByStrategy{
		AmountX:              nativeX,
		AmountY:              nativeY,
		ActiveID:             pool.ActiveBinID,
		MaxActiveBinSlippage: dlmm.MaxActiveBinSlippage,
		Strategy: dlmm.StrategyParameters{
			MinBinID:     minBinID,
			MaxBinID:     maxBinID,
			StrategyType: strategyTypes[req.Strategy],
		},
	})
	if err != nil {
		return domain.DepositBundle{}, fmt.Errorf("txbuilder: add liquidity: %w", err)
	}
	instructions = append(instructions, addLiq)

	tx, err := b.assemble(ctx, instructions, req.Wallet)
	if err != nil {
		return domain.DepositBundle{}, err
	}

	b.logger.InfoContext(ctx, "built deposit transaction",
		slog.String("position", positionAddr.String()),
		slog.Int("min_bin", int(minBinID)),
		slog.Int("max_bin", int(maxBinID)),
		slog.Int("instructions", len(instructions)),
	)
	return domain.DepositBundle{
		Tx:              tx,
		PositionAddress: positionAddr,
		EphemeralKey: domain.EphemeralPositionKey{
			Position: positionAddr,
			Secret:   ephemeral.PrivateKey,
		},
	}, nil
}

// BuildClaim composes the claim transactions for one position. Swap fees and
// liquidity-mining rewards are independent sub-operations; a sub-operation
// with nothing to claim is skipped, not failed, so the result may have fewer
// transactions than the claim type implies, or none at all.
func (b *Builder) BuildClaim(ctx context.Context, pool domain.Pool, pos domain.Position, claimType domain.ClaimType) ([]domain.BuiltTransaction, error) {
	var out []domain.BuiltTransaction

	if claimType == domain.ClaimTypeSwap || claimType == domain.ClaimTypeAll {
		feeX, feeY := pos.PendingFees()
		if feeX > 0 || feeY > 0 {
			tx, err := b.buildClaimFees(ctx, pool, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, domain.BuiltTransaction{Label: domain.OpClaimSwapFees, Tx: tx})
		} else {
			b.logger.InfoContext(ctx, "no pending swap fees; skipping claim",
				slog.String("position", pos.Address.String()))
		}
	}

	if claimType == domain.ClaimTypeLM || claimType == domain.ClaimTypeAll {
		tx, err := b.buildClaimRewards(ctx, pool, pos)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			out = append(out, domain.BuiltTransaction{Label: domain.OpClaimRewards, Tx: tx})
		} else {
			b.logger.InfoContext(ctx, "no pending rewards; skipping claim",
				slog.String("position", pos.Address.String()))
		}
	}
	return out, nil
}

// BuildClose composes the close-position transaction. Callers are expected
// to have verified the position is empty; the program enforces it regardless.
func (b *Builder) BuildClose(ctx context.Context, pool domain.Pool, pos domain.Position) (domain.BuiltTransaction, error) {
	ix, err := dlmm.NewClosePositionInstruction(pos.Address, pool.Address, pos.Owner, pos.Owner, pos.LowerBinID, pos.UpperBinID)
	if err != nil {
		return domain.BuiltTransaction{}, fmt.Errorf("txbuilder: close position: %w", err)
	}
	tx, err := b.assemble(ctx, []solana.Instruction{ix}, pos.Owner)
	if err != nil {
		return domain.BuiltTransaction{}, err
	}
	return domain.BuiltTransaction{Label: domain.OpClosePosition, Tx: tx}, nil
}

func (b *Builder) buildClaimFees(ctx context.Context, pool domain.Pool, pos domain.Position) (*solana.Transaction, error) {
	var instructions []solana.Instruction

	userTokenX, ixs, err := b.ensureTokenAccount(ctx, pos.Owner, pool.TokenXMint)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, ixs...)
	userTokenY, ixs, err := b.ensureTokenAccount(ctx, pos.Owner, pool.TokenYMint)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, ixs...)

	claim, err := dlmm.NewClaimFeeInstruction(dlmm.ClaimFeeAccounts{
		LbPair:     pool.Address,
		Position:   pos.Address,
		Sender:     pos.Owner,
		ReserveX:   pool.ReserveX,
		ReserveY:   pool.ReserveY,
		UserTokenX: userTokenX,
		UserTokenY: userTokenY,
		TokenXMint: pool.TokenXMint,
		TokenYMint: pool.TokenYMint,
	}, pos.LowerBinID, pos.UpperBinID)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: claim fees: %w", err)
	}
	instructions = append(instructions, claim)

	return b.assemble(ctx, instructions, pos.Owner)
}

// buildClaimRewards returns nil when no enrolled reward slot has a pending
// balance.
func (b *Builder) buildClaimRewards(ctx context.Context, pool domain.Pool, pos domain.Position) (*solana.Transaction, error) {
	pending := pos.PendingRewards()

	var instructions []solana.Instruction
	for slot := 0; slot < dlmm.RewardSlots; slot++ {
		if pool.RewardMints[slot].IsZero() || pending[slot] == 0 {
			continue
		}
		userReward, ixs, err := b.ensureTokenAccount(ctx, pos.Owner, pool.RewardMints[slot])
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ixs...)

		claim, err := dlmm.NewClaimRewardInstruction(dlmm.ClaimRewardAccounts{
			LbPair:          pool.Address,
			Position:        pos.Address,
			Sender:          pos.Owner,
			RewardVault:     pool.RewardVaults[slot],
			RewardMint:      pool.RewardMints[slot],
			UserRewardToken: userReward,
		}, uint64(slot), pos.LowerBinID, pos.UpperBinID)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: claim reward %d: %w", slot, err)
		}
		instructions = append(instructions, claim)
	}
	if len(instructions) == 0 {
		return nil, nil
	}
	return b.assemble(ctx, instructions, pos.Owner)
}

// missingBinArrayInits returns initialize_bin_array instructions for every
// array in the span that does not exist on the ledger yet.
func (b *Builder) missingBinArrayInits(ctx context.Context, lbPair, funder solana.PublicKey, minBinID, maxBinID int32) ([]solana.Instruction, error) {
	lowerIdx, upperIdx := dlmm.ArrayIndexRange(minBinID, maxBinID)

	addrs := make([]solana.PublicKey, 0, upperIdx-lowerIdx+1)
	indexes := make([]int64, 0, upperIdx-lowerIdx+1)
	for idx := lowerIdx; idx <= upperIdx; idx++ {
		pda, err := dlmm.DeriveBinArray(lbPair, idx)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: derive bin array %d: %w", idx, err)
		}
		addrs = append(addrs, pda)
		indexes = append(indexes, idx)
	}

	datas, err := b.ledger.MultipleAccountData(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: probe bin arrays: %w", err)
	}

	var out []solana.Instruction
	for i, data := range datas {
		if data != nil {
			continue
		}
		ix, err := dlmm.NewInitializeBinArrayInstruction(indexes[i], lbPair, funder)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: initialize bin array %d: %w", indexes[i], err)
		}
		out = append(out, ix)
	}
	return out, nil
}

// ensureTokenAccount resolves the wallet's associated token account for the
// mint and, when it does not exist yet, prepends a create instruction.
func (b *Builder) ensureTokenAccount(ctx context.Context, wallet, mint solana.PublicKey) (solana.PublicKey, []solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("txbuilder: derive token account: %w", err)
	}

	_, err = b.ledger.AccountData(ctx, ata)
	if err == nil {
		return ata, nil, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return solana.PublicKey{}, nil, fmt.Errorf("txbuilder: probe token account %s: %w", ata, err)
	}

	create, err := associatedtokenaccount.NewCreateInstruction(wallet, wallet, mint).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("txbuilder: create token account: %w", err)
	}
	return ata, []solana.Instruction{create}, nil
}

// assemble stamps a fresh blockhash and wraps the instructions in an
// unsigned transaction with the wallet as fee payer.
func (b *Builder) assemble(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey) (*solana.Transaction, error) {
	blockhash, err := b.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("txbuilder: assemble transaction: %w", err)
	}
	return tx, nil
}

func nativeAmount(amount decimal.Decimal, decimals uint8, field string) (uint64, error) {
	if amount.Sign() <= 0 {
		return 0, &domain.ValidationError{Field: field, Reason: "amount must be positive"}
	}
	native := amount.Shift(int32(decimals)).Truncate(0)
	return native.BigInt().Uint64(), nil
}
