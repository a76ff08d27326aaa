// Package token provides access to the fungible-value ledger that actually
// moves funds. The payment core only consumes the Gateway interface; the
// ledger's own semantics (balances, allowances) live behind it.
package token

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroRecipient         = errors.New("transfer to the zero address")
)

// Gateway is the slice of a fungible-token ledger the payment core needs.
// Transfer pushes from the service's own treasury account; TransferFrom
// pulls from a payer who granted the treasury an allowance beforehand.
// Failures are terminal for the calling operation; nothing here retries.
type Gateway interface {
	BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}
