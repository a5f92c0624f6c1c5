package dlmm

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// StrategyType is the on-chain encoding of the liquidity distribution shape.
type StrategyType uint8

const (
	StrategySpotImBalanced StrategyType = iota
	StrategyCurveImBalanced
	StrategyBidAskImBalanced
	StrategySpotBalanced
	StrategyCurveBalanced
	StrategyBidAskBalanced
)

// StrategyParameters bound the deposit distribution for
// add_liquidity_by_strategy.
type StrategyParameters struct {
	MinBinID     int32
	MaxBinID     int32
	StrategyType StrategyType
	Parameters   [64]uint8
}

// LiquidityParameterByStrategy is the instruction argument for
// add_liquidity_by_strategy.
type LiquidityParameterByStrategy struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	Strategy             StrategyParameters
}

func encodeInstructionData(name string, args any) ([]byte, error) {
	disc := InstructionDiscriminator(name)
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, fmt.Errorf("dlmm: encode %s args: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

func meta(pk solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: pk, IsWritable: writable, IsSigner: signer}
}

// binArrayMetas returns writable metas for every BinArray covering the bin
// range, lower to upper.
func binArrayMetas(lbPair solana.PublicKey, lowerBinID, upperBinID int32) (solana.AccountMetaSlice, error) {
	lo, hi := ArrayIndexRange(lowerBinID, upperBinID)
	metas := make(solana.AccountMetaSlice, 0, hi-lo+1)
	for idx := lo; idx <= hi; idx++ {
		addr, err := DeriveBinArray(lbPair, idx)
		if err != nil {
			return nil, fmt.Errorf("dlmm: derive bin array %d: %w", idx, err)
		}
		metas = append(metas, meta(addr, true, false))
	}
	return metas, nil
}

// NewInitializePositionInstruction creates the position account covering
// [lowerBinID, lowerBinID+width). The position account co-signs its own
// creation, so the caller must hold its keypair.
func NewInitializePositionInstruction(payer, position, lbPair, owner solana.PublicKey, lowerBinID, width int32) (solana.Instruction, error) {
	data, err := encodeInstructionData("initialize_position", struct {
		LowerBinID int32
		Width      int32
	}{lowerBinID, width})
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority()
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(payer, true, true),
		meta(position, true, true),
		meta(lbPair, false, false),
		meta(owner, false, true),
		meta(SystemProgramID, false, false),
		meta(eventAuthority, false, false),
		meta(ProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewInitializeBinArrayInstruction creates the BinArray account at index for
// the pair. Needed once per array before liquidity can land in its bins.
func NewInitializeBinArrayInstruction(index int64, lbPair, funder solana.PublicKey) (solana.Instruction, error) {
	data, err := encodeInstructionData("initialize_bin_array", struct {
		Index int64
	}{index})
	if err != nil {
		return nil, err
	}
	binArray, err := DeriveBinArray(lbPair, index)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(lbPair, false, false),
		meta(binArray, true, false),
		meta(funder, true, true),
		meta(SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// AddLiquidityAccounts collects the accounts for add_liquidity_by_strategy.
type AddLiquidityAccounts struct {
	Position   solana.PublicKey
	LbPair     solana.PublicKey
	UserTokenX solana.PublicKey
	UserTokenY solana.PublicKey
	ReserveX   solana.PublicKey
	ReserveY   solana.PublicKey
	TokenXMint solana.PublicKey
	TokenYMint solana.PublicKey
	Sender     solana.PublicKey
}

// NewAddLiquidityByStrategyInstruction deposits both legs into the position
// following the encoded distribution strategy.
func NewAddLiquidityByStrategyInstruction(acc AddLiquidityAccounts, params LiquidityParameterByStrategy) (solana.Instruction, error) {
	data, err := encodeInstructionData("add_liquidity_by_strategy", params)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority()
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(acc.Position, true, false),
		meta(acc.LbPair, true, false),
		meta(acc.UserTokenX, true, false),
		meta(acc.UserTokenY, true, false),
		meta(acc.ReserveX, true, false),
		meta(acc.ReserveY, true, false),
		meta(acc.TokenXMint, false, false),
		meta(acc.TokenYMint, false, false),
		meta(acc.Sender, false, true),
		meta(TokenProgramID, false, false),
		meta(eventAuthority, false, false),
		meta(ProgramID, false, false),
	}
	arrays, err := binArrayMetas(acc.LbPair, params.Strategy.MinBinID, params.Strategy.MaxBinID)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, arrays...)
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// ClaimFeeAccounts collects the accounts for claim_fee.
type ClaimFeeAccounts struct {
	LbPair     solana.PublicKey
	Position   solana.PublicKey
	Sender     solana.PublicKey
	ReserveX   solana.PublicKey
	ReserveY   solana.PublicKey
	UserTokenX solana.PublicKey
	UserTokenY solana.PublicKey
	TokenXMint solana.PublicKey
	TokenYMint solana.PublicKey
}

// NewClaimFeeInstruction claims the position's accumulated swap fees across
// the given bin range.
func NewClaimFeeInstruction(acc ClaimFeeAccounts, lowerBinID, upperBinID int32) (solana.Instruction, error) {
	data, err := encodeInstructionData("claim_fee", nil)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority()
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(acc.LbPair, true, false),
		meta(acc.Position, true, false),
		meta(acc.Sender, false, true),
		meta(acc.ReserveX, true, false),
		meta(acc.ReserveY, true, false),
		meta(acc.UserTokenX, true, false),
		meta(acc.UserTokenY, true, false),
		meta(acc.TokenXMint, false, false),
		meta(acc.TokenYMint, false, false),
		meta(TokenProgramID, false, false),
		meta(eventAuthority, false, false),
		meta(ProgramID, false, false),
	}
	arrays, err := binArrayMetas(acc.LbPair, lowerBinID, upperBinID)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, arrays...)
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// ClaimRewardAccounts collects the accounts for claim_reward.
type ClaimRewardAccounts struct {
	LbPair          solana.PublicKey
	Position        solana.PublicKey
	Sender          solana.PublicKey
	RewardVault     solana.PublicKey
	RewardMint      solana.PublicKey
	UserRewardToken solana.PublicKey
}

// NewClaimRewardInstruction claims one liquidity-mining reward slot for the
// position.
func NewClaimRewardInstruction(acc ClaimRewardAccounts, rewardIndex uint64, lowerBinID, upperBinID int32) (solana.Instruction, error) {
	data, err := encodeInstructionData("claim_reward", struct {
		RewardIndex uint64
	}{rewardIndex})
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority()
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(acc.LbPair, true, false),
		meta(acc.Position, true, false),
		meta(acc.Sender, false, true),
		meta(acc.RewardVault, true, false),
		meta(acc.RewardMint, false, false),
		meta(acc.UserRewardToken, true, false),
		meta(TokenProgramID, false, false),
		meta(eventAuthority, false, false),
		meta(ProgramID, false, false),
	}
	arrays, err := binArrayMetas(acc.LbPair, lowerBinID, upperBinID)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, arrays...)
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewClosePositionInstruction closes an emptied position account and refunds
// its rent to rentReceiver. The program rejects it with
// ErrCodeNonEmptyPosition when the position still holds funds.
func NewClosePositionInstruction(position, lbPair, sender, rentReceiver solana.PublicKey, lowerBinID, upperBinID int32) (solana.Instruction, error) {
	data, err := encodeInstructionData("close_position", nil)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority()
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		meta(position, true, false),
		meta(lbPair, true, false),
		meta(sender, false, true),
		meta(rentReceiver, true, false),
		meta(eventAuthority, false, false),
		meta(ProgramID, false, false),
	}
	arrays, err := binArrayMetas(lbPair, lowerBinID, upperBinID)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, arrays...)
	return solana.NewInstruction(ProgramID, accounts, data), nil
}
