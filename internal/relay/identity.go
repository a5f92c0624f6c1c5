package relay

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// SelfIdentityResolver maps a self-custodial wallet to its own signer
// identity. A wallet authorizes its own fund movements, so the resolved
// identity is the wallet address itself; resolution fails for addresses
// that are not well-formed on-curve ed25519 keys, which is what gates
// requests carrying garbage or program-derived addresses as "wallets".
type SelfIdentityResolver struct{}

// NewSelfIdentityResolver returns a resolver for self-custodial wallets.
func NewSelfIdentityResolver() *SelfIdentityResolver {
	return &SelfIdentityResolver{}
}

// Identity implements domain.IdentityResolver.
func (r *SelfIdentityResolver) Identity(_ context.Context, wallet string) (string, error) {
	pk, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return "", fmt.Errorf("relay: wallet %q is not a valid address: %w", wallet, domain.ErrUnauthorized)
	}
	if !pk.IsOnCurve() {
		return "", fmt.Errorf("relay: wallet %s cannot sign: %w", pk, domain.ErrUnauthorized)
	}
	return pk.String(), nil
}

var _ domain.IdentityResolver = (*SelfIdentityResolver)(nil)
