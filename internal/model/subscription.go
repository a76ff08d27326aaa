package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxSubscriptionIDLength is the byte-length bound on subscription
// identifiers inherited from the reference deployment.
const MaxSubscriptionIDLength = 13

// Subscription is one paid subscription period. Entries are append-only:
// once recorded under an id they are never mutated or deleted.
type Subscription struct {
	ID        string         `json:"id"`
	Buyer     common.Address `json:"buyer"`
	Amount    *uint256.Int   `json:"amount"`
	Currency  common.Address `json:"currency"`
	CreatedAt time.Time      `json:"created_at"`
}

// PaymentConfig is the single mutable configuration row: the token used for
// new payments and the administrative owner. Changing the token never
// touches already-recorded subscriptions; their currency is a snapshot.
type PaymentConfig struct {
	Token     common.Address `json:"token"`
	Owner     common.Address `json:"owner"`
	UpdatedAt time.Time      `json:"updated_at"`
}
