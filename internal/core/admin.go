package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/edvin/subpay/internal/metrics"
	"github.com/edvin/subpay/internal/model"
	"github.com/edvin/subpay/internal/token"
)

// AdminService exposes the owner-only operations: draining the treasury,
// switching the payment token, and handing over ownership. It shares a
// mutex with SubscriptionService so admin changes serialize with payments.
type AdminService struct {
	config   *PaymentConfigService
	gateway  token.Gateway
	events   *EventRecorder
	treasury common.Address
	logger   zerolog.Logger

	mu *sync.Mutex
}

// requireOwner loads the current config and rejects any caller that is not
// the recorded owner. Must be called with the mutex held.
func (s *AdminService) requireOwner(ctx context.Context, caller common.Address) (*model.PaymentConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != caller {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return cfg, nil
}

// WithdrawAll pushes the treasury's entire balance to the given address and
// returns the amount moved.
func (s *AdminService) WithdrawAll(ctx context.Context, caller, to common.Address) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.requireOwner(ctx, caller)
	if err != nil {
		return nil, err
	}
	if to == (common.Address{}) {
		return nil, fmt.Errorf("%w: withdrawal destination", ErrZeroAddress)
	}

	balance, err := s.gateway.BalanceOf(ctx, s.treasury)
	if err != nil {
		return nil, fmt.Errorf("read treasury balance: %w", err)
	}

	if err := s.gateway.Transfer(ctx, to, balance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.events.Record(ctx, model.PaymentEvent{
		Kind:   model.EventWithdraw,
		Actor:  caller,
		Token:  cfg.Token,
		Amount: balance,
	})
	metrics.Withdrawals.Inc()

	s.logger.Info().
		Str("to", to.Hex()).
		Str("amount", balance.Dec()).
		Msg("treasury withdrawn")

	return balance, nil
}

// SetTokenAddress switches the token future payments settle in. Already
// recorded subscriptions keep the currency they were paid with.
func (s *AdminService) SetTokenAddress(ctx context.Context, caller, newToken common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if newToken == (common.Address{}) {
		return fmt.Errorf("%w: token address", ErrZeroAddress)
	}

	if err := s.config.SetToken(ctx, newToken); err != nil {
		return err
	}

	s.events.Record(ctx, model.PaymentEvent{
		Kind:  model.EventTokenChanged,
		Actor: caller,
		Token: newToken,
	})

	s.logger.Info().Str("token", newToken.Hex()).Msg("payment token changed")
	return nil
}

// TransferOwnership hands the admin role to a new address, effective for
// every subsequent admin call.
func (s *AdminService) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.requireOwner(ctx, caller)
	if err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: new owner", ErrZeroAddress)
	}

	if err := s.config.SetOwner(ctx, newOwner); err != nil {
		return err
	}

	s.events.Record(ctx, model.PaymentEvent{
		Kind:  model.EventOwnershipTransferred,
		Actor: caller,
		Token: cfg.Token,
	})

	s.logger.Info().
		Str("previous", caller.Hex()).
		Str("owner", newOwner.Hex()).
		Msg("ownership transferred")
	return nil
}
