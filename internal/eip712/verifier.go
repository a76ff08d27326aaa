package eip712

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// SignatureLength is the expected compact signature size: 32-byte R,
// 32-byte S and a one-byte recovery id.
const SignatureLength = 65

// Verifier checks that a payment authorization was issued by the trusted
// signer for a specific caller. It holds no mutable state; Verify is a pure
// function of its inputs and the immutable domain configuration.
type Verifier struct {
	domain Domain
	signer common.Address
}

func NewVerifier(domain Domain, trustedSigner common.Address) *Verifier {
	return &Verifier{domain: domain, signer: trustedSigner}
}

// Domain returns the verifier's signing domain.
func (v *Verifier) Domain() Domain { return v.domain }

// Verify recomputes the payment digest with recipient bound to caller and
// requires the recovered signer to be the trusted signer. A signature
// issued for a different recipient recovers to a different (or invalid)
// key and is rejected, so front-running an observed signature fails.
func (v *Verifier) Verify(sig []byte, subscriptionID string, amount *uint256.Int, deadline uint64, caller common.Address) error {
	if len(sig) != SignatureLength {
		return fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	// Accept both the raw recovery id (0/1) and the Ethereum convention (27/28).
	norm := make([]byte, SignatureLength)
	copy(norm, sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	if norm[64] > 1 {
		return fmt.Errorf("invalid recovery id %d", sig[64])
	}

	digest := v.domain.Digest(caller, subscriptionID, amount, deadline)
	pub, err := crypto.SigToPub(digest.Bytes(), norm)
	if err != nil {
		return fmt.Errorf("recover signer: %w", err)
	}

	if recovered := crypto.PubkeyToAddress(*pub); recovered != v.signer {
		return fmt.Errorf("recovered signer %s is not the trusted signer", recovered.Hex())
	}
	return nil
}

// Sign produces a compact [R || S || V] authorization signature over the
// payment digest. Used by the offline signer tool and by tests; the
// service itself never holds the signing key.
func Sign(domain Domain, key *ecdsa.PrivateKey, recipient common.Address, subscriptionID string, amount *uint256.Int, deadline uint64) ([]byte, error) {
	digest := domain.Digest(recipient, subscriptionID, amount, deadline)
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("sign payment digest: %w", err)
	}
	return sig, nil
}
