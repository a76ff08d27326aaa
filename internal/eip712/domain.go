// Package eip712 implements the structured-data signing scheme used to
// authorize subscription payments. The encoding follows EIP-712 exactly so
// that authorizations produced by standard EVM tooling
// (eth_signTypedData_v4) verify here bit for bit.
package eip712

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	paymentTypeHash = crypto.Keccak256Hash(
		[]byte("Payment(address recipient,string subscriptionId,uint256 amount,uint64 deadline)"),
	)
)

// Domain is the signing domain separator input. It is immutable; changing
// any field invalidates every previously issued authorization.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

// Separator returns the EIP-712 domain separator hash.
func (d Domain) Separator() common.Hash {
	var chainID uint256.Int
	chainID.SetUint64(d.ChainID)
	chainWord := chainID.Bytes32()

	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		chainWord[:],
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// Digest computes the signable digest for a payment authorization.
// recipient must be the identity that will redeem the authorization; the
// verifier always sets it to the actual caller, which is what makes an
// observed signature worthless to anyone else.
func (d Domain) Digest(recipient common.Address, subscriptionID string, amount *uint256.Int, deadline uint64) common.Hash {
	var dl uint256.Int
	dl.SetUint64(deadline)
	deadlineWord := dl.Bytes32()
	amountWord := amount.Bytes32()

	structHash := crypto.Keccak256(
		paymentTypeHash.Bytes(),
		common.LeftPadBytes(recipient.Bytes(), 32),
		crypto.Keccak256([]byte(subscriptionID)),
		amountWord[:],
		deadlineWord[:],
	)

	sep := d.Separator()
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, sep.Bytes(), structHash)
}
