package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/subpay/internal/eip712"
	"github.com/edvin/subpay/internal/metrics"
	"github.com/edvin/subpay/internal/model"
	"github.com/edvin/subpay/internal/token"
)

// SubscriptionService accepts signed payment authorizations and appends
// paid subscriptions to the ledger. All state transitions run under a
// mutex shared with AdminService so a payment never interleaves with a
// token change or a withdrawal.
type SubscriptionService struct {
	db       DB
	verifier *eip712.Verifier
	gateway  token.Gateway
	config   *PaymentConfigService
	events   *EventRecorder
	treasury common.Address
	logger   zerolog.Logger

	mu  *sync.Mutex
	now func() time.Time
}

// CreateSubscription runs the full payment flow for an authenticated
// caller: deadline check, signature verification against the caller's own
// address, duplicate check, token pull into the treasury, and the ledger
// insert. Rejections happen before any tokens move; if the insert fails
// after the pull, the pulled amount is transferred back.
func (s *SubscriptionService) CreateSubscription(
	ctx context.Context,
	caller common.Address,
	signature []byte,
	subscriptionID string,
	amount *uint256.Int,
	deadline uint64,
) (*model.Subscription, error) {
	if len(subscriptionID) > model.MaxSubscriptionIDLength {
		metrics.PaymentFailures.WithLabelValues("identifier_too_long").Inc()
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrIdentifierTooLong, len(subscriptionID), model.MaxSubscriptionIDLength)
	}
	if amount == nil {
		return nil, errors.New("amount is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if uint64(now.Unix()) >= deadline {
		metrics.PaymentFailures.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("%w: deadline %d, now %d", ErrExpired, deadline, now.Unix())
	}

	// The caller's own authenticated address is the recipient the digest
	// is rebuilt with. An authorization captured in flight is useless to
	// anyone but the address it was issued for.
	if err := s.verifier.Verify(signature, subscriptionID, amount, deadline, caller); err != nil {
		metrics.PaymentFailures.WithLabelValues("invalid_signature").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var existing string
	err := s.db.QueryRow(ctx,
		"SELECT buyer FROM subscriptions WHERE id = $1", subscriptionID,
	).Scan(&existing)
	switch {
	case err == nil:
		metrics.PaymentFailures.WithLabelValues("duplicate").Inc()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, subscriptionID)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("check subscription %q: %w", subscriptionID, err)
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.TransferFrom(ctx, caller, s.treasury, amount); err != nil {
		metrics.PaymentFailures.WithLabelValues("transfer").Inc()
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	sub := &model.Subscription{
		ID:        subscriptionID,
		Buyer:     caller,
		Amount:    amount.Clone(),
		Currency:  cfg.Token,
		CreatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO subscriptions (id, buyer, amount, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Buyer.Hex(), sub.Amount.Dec(), sub.Currency.Hex(), sub.CreatedAt,
	)
	if err != nil {
		// Tokens already moved; push them back before surfacing the error.
		if refundErr := s.gateway.Transfer(ctx, caller, amount); refundErr != nil {
			s.logger.Error().Err(refundErr).
				Str("buyer", caller.Hex()).
				Str("amount", amount.Dec()).
				Msg("refund after failed ledger insert did not go through")
		}
		return nil, fmt.Errorf("record subscription %q: %w", subscriptionID, err)
	}

	s.events.Record(ctx, model.PaymentEvent{
		Kind:           model.EventSubscriptionPaid,
		SubscriptionID: sub.ID,
		Actor:          sub.Buyer,
		Token:          sub.Currency,
		Amount:         sub.Amount,
		CreatedAt:      now,
	})
	metrics.SubscriptionsCreated.Inc()

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("buyer", sub.Buyer.Hex()).
		Str("amount", sub.Amount.Dec()).
		Str("currency", sub.Currency.Hex()).
		Msg("subscription paid")

	return sub, nil
}

// GetByID looks up a single subscription; ErrNotFound when no payment was
// ever recorded under the identifier.
func (s *SubscriptionService) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	var buyer, amount, currency string
	var createdAt time.Time
	err := s.db.QueryRow(ctx,
		"SELECT buyer, amount, currency, created_at FROM subscriptions WHERE id = $1", id,
	).Scan(&buyer, &amount, &currency, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %q: %w", id, err)
	}

	amt, err := uint256.FromDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount for %q: %w", id, err)
	}

	return &model.Subscription{
		ID:        id,
		Buyer:     common.HexToAddress(buyer),
		Amount:    amt,
		Currency:  common.HexToAddress(currency),
		CreatedAt: createdAt,
	}, nil
}

// List returns subscriptions newest first.
func (s *SubscriptionService) List(ctx context.Context, limit int) ([]*model.Subscription, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		"SELECT id, buyer, amount, currency, created_at FROM subscriptions ORDER BY created_at DESC, id LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*model.Subscription{}
	for rows.Next() {
		var id, buyer, amount, currency string
		var createdAt time.Time
		if err := rows.Scan(&id, &buyer, &amount, &currency, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		amt, err := uint256.FromDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount for %q: %w", id, err)
		}
		subs = append(subs, &model.Subscription{
			ID:        id,
			Buyer:     common.HexToAddress(buyer),
			Amount:    amt,
			Currency:  common.HexToAddress(currency),
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// TokenAddress reports the token new payments are currently settled in.
func (s *SubscriptionService) TokenAddress(ctx context.Context) (common.Address, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return cfg.Token, nil
}
