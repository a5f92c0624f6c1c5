// Package position loads pools and liquidity positions from the ledger and
// flattens the program's parallel per-bin account state into domain
// snapshots.
package position

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/dlmm"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// SPL token mint layout: decimals is a single byte at offset 44.
const (
	mintAccountSize    = 82
	mintDecimalsOffset = 44
)

// Repository reads pool and position accounts. It holds no state between
// calls; every method is one fresh ledger snapshot.
type Repository struct {
	ledger domain.LedgerReader
	logger *slog.Logger
}

func NewRepository(ledger domain.LedgerReader, logger *slog.Logger) *Repository {
	return &Repository{
		ledger: ledger,
		logger: logger.With(slog.String("component", "position")),
	}
}

// PoolByAddress loads and decodes a pool account, including the token
// decimals of both sides, which live on the mint accounts rather than the
// pair itself.
func (r *Repository) PoolByAddress(ctx context.Context, addr solana.PublicKey) (domain.Pool, error) {
	data, err := r.ledger.AccountData(ctx, addr)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("position: load pool %s: %w", addr, err)
	}
	lb, err := dlmm.DecodeLbPair(data)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("position: pool %s: %w", addr, err)
	}

	mints, err := r.ledger.MultipleAccountData(ctx, []solana.PublicKey{lb.TokenXMint, lb.TokenYMint})
	if err != nil {
		return domain.Pool{}, fmt.Errorf("position: load pool mints: %w", err)
	}
	decX, err := mintDecimals(mints[0])
	if err != nil {
		return domain.Pool{}, fmt.Errorf("position: mint %s: %w", lb.TokenXMint, err)
	}
	decY, err := mintDecimals(mints[1])
	if err != nil {
		return domain.Pool{}, fmt.Errorf("position: mint %s: %w", lb.TokenYMint, err)
	}

	pool := domain.Pool{
		Address:        addr,
		TokenXMint:     lb.TokenXMint,
		TokenYMint:     lb.TokenYMint,
		TokenXDecimals: decX,
		TokenYDecimals: decY,
		BinStep:        lb.BinStep,
		ActiveBinID:    lb.ActiveID,
		ReserveX:       lb.ReserveX,
		ReserveY:       lb.ReserveY,
	}
	for slot, info := range lb.RewardInfos {
		pool.RewardMints[slot] = info.Mint
		pool.RewardVaults[slot] = info.Vault
	}
	return pool, nil
}

// PositionsByWallet scans the program for every position account of the
// wallet in the given pool and hydrates each with its bin-level amounts.
func (r *Repository) PositionsByWallet(ctx context.Context, pool, wallet solana.PublicKey) ([]domain.Position, error) {
	filters := []domain.AccountFilter{
		{Offset: 0, Bytes: dlmm.DiscPositionV2[:]},
		{Offset: 8, Bytes: pool.Bytes()},
		{Offset: 40, Bytes: wallet.Bytes()},
	}
	accounts, err := r.ledger.ProgramAccounts(ctx, dlmm.ProgramID, filters)
	if err != nil {
		return nil, fmt.Errorf("position: scan wallet %s: %w", wallet, err)
	}

	positions := make([]domain.Position, 0, len(accounts))
	for _, acc := range accounts {
		raw, err := dlmm.DecodePositionV2(acc.Data)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping undecodable position account",
				slog.String("address", acc.Address.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		pos, err := r.hydrate(ctx, acc.Address, raw)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// PositionByAddress loads a single position account and verifies ownership.
// A position owned by a different wallet surfaces as ErrUnauthorized, not
// ErrNotFound, so callers can distinguish a typo from a permissions problem.
func (r *Repository) PositionByAddress(ctx context.Context, addr, wallet solana.PublicKey) (domain.Position, error) {
	data, err := r.ledger.AccountData(ctx, addr)
	if err != nil {
		return domain.Position{}, fmt.Errorf("position: load %s: %w", addr, err)
	}
	raw, err := dlmm.DecodePositionV2(data)
	if err != nil {
		return domain.Position{}, fmt.Errorf("position: %s: %w", addr, err)
	}
	if !raw.Owner.Equals(wallet) {
		return domain.Position{}, fmt.Errorf("position: %s owner mismatch: %w", addr, domain.ErrUnauthorized)
	}
	return r.hydrate(ctx, addr, raw)
}

// hydrate converts a raw position account into a domain snapshot by joining
// the position's per-bin shares against the pool-wide bin arrays spanning
// its range. A position's amount in a bin is its pro-rata slice of the
// bin's reserves:
//
//	amount = binAmount * share / liquiditySupply
//
// computed in big.Int so the 128-bit share values never overflow.
func (r *Repository) hydrate(ctx context.Context, addr solana.PublicKey, raw *dlmm.PositionV2) (domain.Position, error) {
	arrays, err := r.binArrays(ctx, raw.LbPair, raw.LowerBinID, raw.UpperBinID)
	if err != nil {
		return domain.Position{}, err
	}

	pos := domain.Position{
		Address:       addr,
		Owner:         raw.Owner,
		Pool:          raw.LbPair,
		LowerBinID:    raw.LowerBinID,
		UpperBinID:    raw.UpperBinID,
		Bins:          make([]domain.Bin, 0, raw.Width()),
		LastUpdatedAt: raw.LastUpdatedAt,
	}

	for binID := raw.LowerBinID; binID <= raw.UpperBinID; binID++ {
		slot := int(binID - raw.LowerBinID)
		b := domain.Bin{
			BinID: binID,
			FeeX:  raw.FeeInfos[slot].FeeXPending,
			FeeY:  raw.FeeInfos[slot].FeeYPending,
		}
		for rs := 0; rs < dlmm.RewardSlots; rs++ {
			b.Rewards[rs] = raw.RewardInfos[slot].RewardPendings[rs]
		}

		share := raw.LiquidityShares[slot].BigInt()
		if share.Sign() != 0 {
			state, ok := lookupBin(arrays, binID)
			if !ok {
				// Shares without a backing bin array means the snapshot
				// raced an array closure; drop the request rather than
				// report a partial position.
				return domain.Position{}, fmt.Errorf("position: %s bin %d has shares but no bin array", addr, binID)
			}
			supply := state.LiquiditySupply.BigInt()
			b.AmountX = prorata(state.AmountX, share, supply)
			b.AmountY = prorata(state.AmountY, share, supply)
		}
		pos.Bins = append(pos.Bins, b)
	}
	return pos, nil
}

// binArrays fetches every bin-array account covering the bin id span in one
// batched read. Missing arrays are tolerated at fetch time; hydration only
// fails if a bin with live shares points at one.
func (r *Repository) binArrays(ctx context.Context, lbPair solana.PublicKey, lowerBinID, upperBinID int32) (map[int64]*dlmm.BinArray, error) {
	lowerIdx, upperIdx := dlmm.ArrayIndexRange(lowerBinID, upperBinID)

	addrs := make([]solana.PublicKey, 0, upperIdx-lowerIdx+1)
	indexes := make([]int64, 0, upperIdx-lowerIdx+1)
	for idx := lowerIdx; idx <= upperIdx; idx++ {
		pda, err := dlmm.DeriveBinArray(lbPair, idx)
		if err != nil {
			return nil, fmt.Errorf("position: derive bin array %d: %w", idx, err)
		}
		addrs = append(addrs, pda)
		indexes = append(indexes, idx)
	}

	datas, err := r.ledger.MultipleAccountData(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("position: load bin arrays: %w", err)
	}

	out := make(map[int64]*dlmm.BinArray, len(datas))
	for i, data := range datas {
		if data == nil {
			continue
		}
		arr, err := dlmm.DecodeBinArray(data)
		if err != nil {
			return nil, fmt.Errorf("position: bin array %d: %w", indexes[i], err)
		}
		out[indexes[i]] = arr
	}
	return out, nil
}

// lookupBin resolves a bin id to its pool-wide state in the fetched arrays.
func lookupBin(arrays map[int64]*dlmm.BinArray, binID int32) (dlmm.BinState, bool) {
	idx := dlmm.BinIDToArrayIndex(binID)
	arr, ok := arrays[idx]
	if !ok {
		return dlmm.BinState{}, false
	}
	offset := int64(binID) - idx*dlmm.MaxBinPerArray
	return arr.Bins[offset], true
}

// prorata computes total * share / supply without intermediate overflow.
// Zero supply (an emptied bin) yields zero.
func prorata(total uint64, share, supply *big.Int) uint64 {
	if supply.Sign() == 0 {
		return 0
	}
	n := new(big.Int).SetUint64(total)
	n.Mul(n, share)
	n.Quo(n, supply)
	return n.Uint64()
}

func mintDecimals(data []byte) (uint8, error) {
	if len(data) < mintAccountSize {
		return 0, fmt.Errorf("mint account truncated (%d bytes)", len(data))
	}
	return data[mintDecimalsOffset], nil
}
