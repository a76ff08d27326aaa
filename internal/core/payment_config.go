package core

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edvin/subpay/internal/model"
)

// PaymentConfigService owns the single payment_config row: the token used
// for new payments and the administrative owner.
type PaymentConfigService struct {
	db DB
}

func NewPaymentConfigService(db DB) *PaymentConfigService {
	return &PaymentConfigService{db: db}
}

// Ensure seeds the config row on first boot; later boots leave it alone so
// admin changes survive restarts.
func (s *PaymentConfigService) Ensure(ctx context.Context, token, owner common.Address) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO payment_config (id, token, owner, updated_at)
		 VALUES (1, $1, $2, now())
		 ON CONFLICT (id) DO NOTHING`,
		token.Hex(), owner.Hex(),
	)
	if err != nil {
		return fmt.Errorf("seed payment config: %w", err)
	}
	return nil
}

func (s *PaymentConfigService) Get(ctx context.Context) (*model.PaymentConfig, error) {
	var cfg model.PaymentConfig
	var token, owner string
	err := s.db.QueryRow(ctx,
		"SELECT token, owner, updated_at FROM payment_config WHERE id = 1",
	).Scan(&token, &owner, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get payment config: %w", err)
	}
	cfg.Token = common.HexToAddress(token)
	cfg.Owner = common.HexToAddress(owner)
	return &cfg, nil
}

func (s *PaymentConfigService) SetToken(ctx context.Context, token common.Address) error {
	_, err := s.db.Exec(ctx,
		"UPDATE payment_config SET token = $1, updated_at = now() WHERE id = 1",
		token.Hex(),
	)
	if err != nil {
		return fmt.Errorf("set payment token: %w", err)
	}
	return nil
}

func (s *PaymentConfigService) SetOwner(ctx context.Context, owner common.Address) error {
	_, err := s.db.Exec(ctx,
		"UPDATE payment_config SET owner = $1, updated_at = now() WHERE id = 1",
		owner.Hex(),
	)
	if err != nil {
		return fmt.Errorf("set payment owner: %w", err)
	}
	return nil
}
