package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// APIKey authenticates a caller and binds it to a wallet address. Only a
// hash of the key is stored.
type APIKey struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	RevokedAt *time.Time     `json:"revoked_at,omitempty"`
}
