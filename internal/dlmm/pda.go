package dlmm

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// BinIDToArrayIndex maps a bin id to the index of the BinArray account that
// holds it. Bin ids are signed; negative ids floor toward negative infinity
// so every array covers exactly MaxBinPerArray consecutive bins.
func BinIDToArrayIndex(binID int32) int64 {
	q := binID / MaxBinPerArray
	r := binID % MaxBinPerArray
	if binID < 0 && r != 0 {
		q--
	}
	return int64(q)
}

// ArrayIndexRange returns the inclusive BinArray index span covering the
// given bin id range.
func ArrayIndexRange(lowerBinID, upperBinID int32) (lower, upper int64) {
	return BinIDToArrayIndex(lowerBinID), BinIDToArrayIndex(upperBinID)
}

// DeriveBinArray derives the PDA of the BinArray account at index for the
// given pair.
func DeriveBinArray(lbPair solana.PublicKey, index int64) (solana.PublicKey, error) {
	idxLE := make([]byte, 8)
	binary.LittleEndian.PutUint64(idxLE, uint64(index))
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("bin_array"),
		lbPair.Bytes(),
		idxLE,
	}, ProgramID)
	return addr, err
}

// DeriveEventAuthority derives the anchor event-authority PDA that every
// program instruction references.
func DeriveEventAuthority() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("__event_authority"),
	}, ProgramID)
	return addr, err
}

// AccountDiscriminator computes the 8-byte anchor discriminator prefixed to
// account data: sha256("account:<Name>")[:8].
func AccountDiscriminator(name string) [8]byte {
	return sighash("account:" + name)
}

// InstructionDiscriminator computes the 8-byte anchor discriminator prefixed
// to instruction data: sha256("global:<snake_name>")[:8].
func InstructionDiscriminator(name string) [8]byte {
	return sighash("global:" + name)
}

func sighash(preimage string) [8]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}
