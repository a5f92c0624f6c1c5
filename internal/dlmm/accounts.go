package dlmm

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// LbPair is the decoded pool account. Field order matches the on-chain
// borsh layout; only fields the pipeline consumes are named, the rest are
// padding blocks so offsets line up.
type LbPair struct {
	Parameters  StaticParameters
	VParameters VariableParameters
	BumpSeed    [1]uint8
	BinStepSeed [2]uint8
	PairType    uint8
	ActiveID    int32
	BinStep     uint16
	Status      uint8
	Padding0    [5]uint8
	TokenXMint  solana.PublicKey
	TokenYMint  solana.PublicKey
	ReserveX    solana.PublicKey
	ReserveY    solana.PublicKey
	ProtocolFee ProtocolFee
	Padding1    [32]uint8
	RewardInfos [RewardSlots]RewardInfo
}

// StaticParameters are the immutable fee parameters set at pool creation.
type StaticParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	MinBinID                 int32
	MaxBinID                 int32
	ProtocolShare            uint16
	Padding                  [6]uint8
}

// VariableParameters track the volatility accumulator used for dynamic fees.
type VariableParameters struct {
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IndexReference        int32
	Padding               [4]uint8
	LastUpdateTimestamp   int64
	Padding1              [8]uint8
}

// ProtocolFee is the pool's accumulated protocol fee per side.
type ProtocolFee struct {
	AmountX uint64
	AmountY uint64
}

// RewardInfo describes one liquidity-mining reward slot. A zero Mint means
// the slot is not enrolled.
type RewardInfo struct {
	Mint             solana.PublicKey
	Vault            solana.PublicKey
	Funder           solana.PublicKey
	RewardDuration   uint64
	RewardDurationEnd uint64
	RewardRate       bin.Uint128
	LastUpdateTime   uint64
	CumulativeSecondsWithEmptyLiquidityReward uint64
}

// PositionV2 is the decoded position account. Per-bin state is carried as
// parallel 70-slot arrays indexed by binID - LowerBinID.
type PositionV2 struct {
	LbPair                 solana.PublicKey
	Owner                  solana.PublicKey
	LiquidityShares        [MaxBinPerPosition]bin.Uint128
	RewardInfos            [MaxBinPerPosition]UserRewardInfo
	FeeInfos               [MaxBinPerPosition]FeeInfo
	LowerBinID             int32
	UpperBinID             int32
	LastUpdatedAt          int64
	TotalClaimedFeeXAmount uint64
	TotalClaimedFeeYAmount uint64
	TotalClaimedRewards    [RewardSlots]uint64
	Operator               solana.PublicKey
	LockReleasePoint       uint64
	Padding                [128]uint8
}

// UserRewardInfo is a position's per-bin reward accounting.
type UserRewardInfo struct {
	RewardPerTokenCompletes [RewardSlots]bin.Uint128
	RewardPendings          [RewardSlots]uint64
}

// FeeInfo is a position's per-bin unclaimed swap fee accounting.
type FeeInfo struct {
	FeeXPerTokenComplete bin.Uint128
	FeeYPerTokenComplete bin.Uint128
	FeeXPending          uint64
	FeeYPending          uint64
}

// Width returns the number of bins the position spans.
func (p *PositionV2) Width() int {
	return int(p.UpperBinID-p.LowerBinID) + 1
}

// BinArray is one decoded bin-array account: MaxBinPerArray consecutive
// bins of pool-wide liquidity state.
type BinArray struct {
	Index   int64
	Version uint8
	Padding [7]uint8
	LbPair  solana.PublicKey
	Bins    [MaxBinPerArray]BinState
}

// BinState is the pool-wide state of a single bin.
type BinState struct {
	AmountX              uint64
	AmountY              uint64
	Price                bin.Uint128
	LiquiditySupply      bin.Uint128
	RewardPerTokenStored [RewardSlots]bin.Uint128
	FeeAmountXPerTokenStored bin.Uint128
	FeeAmountYPerTokenStored bin.Uint128
	AmountXIn            bin.Uint128
	AmountYIn            bin.Uint128
}

// Anchor account discriminators.
var (
	DiscLbPair     = AccountDiscriminator("LbPair")
	DiscPositionV2 = AccountDiscriminator("PositionV2")
	DiscBinArray   = AccountDiscriminator("BinArray")
)

// DecodeLbPair parses a raw LbPair account.
func DecodeLbPair(data []byte) (*LbPair, error) {
	body, err := stripDiscriminator(data, DiscLbPair, "LbPair")
	if err != nil {
		return nil, err
	}
	var out LbPair
	if err := bin.NewBorshDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("dlmm: decode LbPair: %w", err)
	}
	return &out, nil
}

// DecodePositionV2 parses a raw PositionV2 account.
func DecodePositionV2(data []byte) (*PositionV2, error) {
	body, err := stripDiscriminator(data, DiscPositionV2, "PositionV2")
	if err != nil {
		return nil, err
	}
	var out PositionV2
	if err := bin.NewBorshDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("dlmm: decode PositionV2: %w", err)
	}
	return &out, nil
}

// DecodeBinArray parses a raw BinArray account.
func DecodeBinArray(data []byte) (*BinArray, error) {
	body, err := stripDiscriminator(data, DiscBinArray, "BinArray")
	if err != nil {
		return nil, err
	}
	var out BinArray
	if err := bin.NewBorshDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("dlmm: decode BinArray: %w", err)
	}
	return &out, nil
}

// EncodeAccount serializes an account struct behind its discriminator.
// Production code never writes accounts; this exists for fixtures.
func EncodeAccount(disc [8]byte, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("dlmm: encode account: %w", err)
	}
	return buf.Bytes(), nil
}

func stripDiscriminator(data []byte, disc [8]byte, name string) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("dlmm: %s account truncated (%d bytes)", name, len(data))
	}
	if !bytes.Equal(data[:8], disc[:]) {
		return nil, fmt.Errorf("dlmm: account is not a %s", name)
	}
	return data[8:], nil
}
