package core

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/edvin/subpay/internal/eip712"
	"github.com/edvin/subpay/internal/token"
)

// Services bundles the payment services over one database handle. The
// shared mutex gives payments and admin operations a single total order:
// a payment observes either the config before an admin change or after
// it, never a half-applied one.
type Services struct {
	PaymentConfig *PaymentConfigService
	Subscription  *SubscriptionService
	Admin         *AdminService
}

func NewServices(
	db DB,
	gateway token.Gateway,
	verifier *eip712.Verifier,
	treasury common.Address,
	logger zerolog.Logger,
) *Services {
	mu := &sync.Mutex{}
	config := NewPaymentConfigService(db)
	events := NewEventRecorder(db, logger)

	return &Services{
		PaymentConfig: config,
		Subscription: &SubscriptionService{
			db:       db,
			verifier: verifier,
			gateway:  gateway,
			config:   config,
			events:   events,
			treasury: treasury,
			logger:   logger,
			mu:       mu,
			now:      time.Now,
		},
		Admin: &AdminService{
			config:   config,
			gateway:  gateway,
			events:   events,
			treasury: treasury,
			logger:   logger,
			mu:       mu,
		},
	}
}
