package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/edvin/subpay/internal/model"
)

// APIKeyService issues and revokes the keys callers authenticate with.
// The raw key is returned exactly once at creation; the table only holds
// its SHA-256.
type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

func (s *APIKeyService) Create(ctx context.Context, name string, address common.Address) (*model.APIKey, string, error) {
	if address == (common.Address{}) {
		return nil, "", fmt.Errorf("%w: api key address", ErrZeroAddress)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "spk_" + hex.EncodeToString(raw)

	hash := sha256.Sum256([]byte(rawKey))
	key := &model.APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   address,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, address, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		key.ID, key.Name, hex.EncodeToString(hash[:]), key.Address.Hex(), key.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("create api key: %w", err)
	}

	return key, rawKey, nil
}

func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	return nil
}
