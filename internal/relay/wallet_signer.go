package relay

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/txcodec"
)

// WalletSigner signs with a locally held wallet key. Production deployments
// keep the wallet key on the client side and use an out-of-process signer;
// this implementation backs operational tooling and tests.
type WalletSigner struct {
	key solana.PrivateKey
}

var _ domain.Signer = (*WalletSigner)(nil)

func NewWalletSigner(key solana.PrivateKey) *WalletSigner {
	return &WalletSigner{key: key}
}

// SignTransaction signs with the wallet key and, when the transaction
// creates a position, the ephemeral position key. Keys the transaction does
// not require are ignored.
func (s *WalletSigner) SignTransaction(ctx context.Context, encodedTx string, ephemeral *domain.EphemeralPositionKey) (string, error) {
	tx, err := txcodec.Decode(encodedTx)
	if err != nil {
		return "", &domain.SignerRejectedError{Reason: err.Error()}
	}

	_, err = tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(s.key.PublicKey()) {
			return &s.key
		}
		if ephemeral != nil && pk.Equals(ephemeral.Position) {
			return &ephemeral.Secret
		}
		return nil
	})
	if err != nil {
		return "", &domain.SignerRejectedError{Reason: err.Error()}
	}

	signed, err := txcodec.Encode(tx)
	if err != nil {
		return "", &domain.SignerRejectedError{Reason: err.Error()}
	}
	return signed, nil
}
