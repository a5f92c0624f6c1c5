package txcodec

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/dlmm"
)

func buildTestTx(t *testing.T) *solana.Transaction {
	t.Helper()

	payer := solana.NewWallet()
	position := solana.NewWallet()
	lbPair := solana.NewWallet().PublicKey()

	// Two instructions against two different programs.
	initIx, err := dlmm.NewInitializePositionInstruction(
		payer.PublicKey(), position.PublicKey(), lbPair, payer.PublicKey(), -10, 21)
	require.NoError(t, err)

	transferIx := system.NewTransferInstruction(
		1_000_000, payer.PublicKey(), position.PublicKey()).Build()

	blockhash := solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N")
	tx, err := solana.NewTransaction(
		[]solana.Instruction{initIx, transferIx},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	return tx
}

func TestRoundTripUnsigned(t *testing.T) {
	tx := buildTestTx(t)

	encoded, err := Encode(tx)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	// The round trip is lossless: re-encoding yields identical bytes.
	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)

	assert.Equal(t, tx.Message.RecentBlockhash, decoded.Message.RecentBlockhash)
	assert.Equal(t, len(tx.Message.Instructions), len(decoded.Message.Instructions))
	assert.Equal(t, tx.Message.AccountKeys, decoded.Message.AccountKeys)
}

func TestRoundTripSigned(t *testing.T) {
	payer := solana.NewWallet()
	blockhash := solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N")

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(42, payer.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)

	encoded, err := Encode(tx)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 1)
	assert.Equal(t, tx.Signatures[0], decoded.Signatures[0])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64 at all !!!")
	assert.Error(t, err)

	_, err = Decode("AAECAw==") // valid base64, not a transaction
	assert.Error(t, err)
}
