// Package relay carries unsigned transactions across the signing trust
// boundary and brings them back signed. The relay never holds wallet key
// material; signing happens on the other side of the domain.Signer port.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/txcodec"
)

// Relay encodes a built transaction, hands it to the signer, and decodes
// the signed result.
type Relay struct {
	signer domain.Signer
	logger *slog.Logger
}

func NewRelay(signer domain.Signer, logger *slog.Logger) *Relay {
	return &Relay{
		signer: signer,
		logger: logger.With(slog.String("component", "relay")),
	}
}

// Sign round-trips one transaction through the signer. ephemeral may be nil;
// it is only set for deposits, where the brand-new position account must
// co-sign. The signer's decline surfaces unchanged as *SignerRejectedError.
func (r *Relay) Sign(ctx context.Context, tx *solana.Transaction, ephemeral *domain.EphemeralPositionKey) (*solana.Transaction, error) {
	encoded, err := txcodec.Encode(tx)
	if err != nil {
		return nil, fmt.Errorf("relay: encode for signing: %w", err)
	}

	signedEncoded, err := r.signer.SignTransaction(ctx, encoded, ephemeral)
	if err != nil {
		return nil, err
	}

	signed, err := txcodec.Decode(signedEncoded)
	if err != nil {
		return nil, fmt.Errorf("relay: decode signed transaction: %w", err)
	}
	if err := verifySigned(signed); err != nil {
		return nil, &domain.SignerRejectedError{Reason: err.Error()}
	}
	return signed, nil
}

// verifySigned rejects a transaction that came back with missing or
// all-zero signatures.
func verifySigned(tx *solana.Transaction) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < required {
		return fmt.Errorf("returned %d of %d required signatures", len(tx.Signatures), required)
	}
	for i, sig := range tx.Signatures[:required] {
		if sig.IsZero() {
			return fmt.Errorf("signature %d is empty", i)
		}
	}
	return nil
}
