// Package txcodec serializes transactions into a transport-safe form for
// the client/server signing boundary. Encoding never requires signatures, so
// an unsigned transaction travels the same way as a signed one, and
// decode(encode(t)) is lossless for any valid transaction.
package txcodec

import (
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Encode serializes the transaction to the wire format and wraps it in
// base64 for transport inside JSON bodies.
func Encode(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("txcodec: marshal transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. No signature verification happens here; a
// zero-signature (unsigned) payload decodes fine.
func Decode(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("txcodec: base64 decode: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("txcodec: unmarshal transaction: %w", err)
	}
	return tx, nil
}
