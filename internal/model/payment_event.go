package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Payment event kinds.
const (
	EventSubscriptionPaid     = "subscription_paid"
	EventWithdraw             = "withdraw"
	EventTokenChanged         = "token_changed"
	EventOwnershipTransferred = "ownership_transferred"
)

// PaymentEvent is a notification record appended after a committed
// operation. Events are observational; they never drive state.
type PaymentEvent struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Actor          common.Address `json:"actor"`
	Token          common.Address `json:"token"`
	Amount         *uint256.Int   `json:"amount,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
