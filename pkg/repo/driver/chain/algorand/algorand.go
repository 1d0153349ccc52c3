package algorand

import (
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"custody/utilities"
)

type Algorand struct{}

func New() *Algorand {
	return new(Algorand)
}

// ValidateAddress checks the checksum of a base32 algorand address.
func (alg *Algorand) ValidateAddress(address string) error {
	if _, err := types.DecodeAddress(address); err != nil {
		return fmt.Errorf("invalid algorand address %s: %w", address, err)
	}
	return nil
}

// VerifySignature checks signature over message made with the key behind
// address. Wallets sign arbitrary bytes with the "MX" domain prefix.
func (alg *Algorand) VerifySignature(address string, message, signature []byte) error {
	log := utilities.NewLoggerWithFields(
		"VerifySignature", map[string]interface{}{
			"address": address,
		},
	)

	addr, err := types.DecodeAddress(address)
	if err != nil {
		return fmt.Errorf("invalid algorand address %s: %w", address, err)
	}

	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("signature has %d bytes, want %d", len(signature), ed25519.SignatureSize)
	}

	if !crypto.VerifyBytes(ed25519.PublicKey(addr[:]), message, signature) {
		log.Debug("signature mismatch")
		return fmt.Errorf("signature validation failed")
	}

	return nil
}
