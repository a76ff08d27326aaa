package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edvin/subpay/internal/model"
)

// EventRecorder appends payment notification events. Events are emitted
// after the operation's state change has committed; a failed event write
// is logged but never unwinds the operation itself.
type EventRecorder struct {
	db     DB
	logger zerolog.Logger
}

func NewEventRecorder(db DB, logger zerolog.Logger) *EventRecorder {
	return &EventRecorder{db: db, logger: logger}
}

func (r *EventRecorder) Record(ctx context.Context, ev model.PaymentEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	var amount *string
	if ev.Amount != nil {
		dec := ev.Amount.Dec()
		amount = &dec
	}
	var subID *string
	if ev.SubscriptionID != "" {
		subID = &ev.SubscriptionID
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO payment_events (id, kind, subscription_id, actor, token, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.Kind, subID, ev.Actor.Hex(), ev.Token.Hex(), amount, ev.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("kind", ev.Kind).Msg("failed to record payment event")
		return
	}

	r.logger.Info().
		Str("kind", ev.Kind).
		Str("actor", ev.Actor.Hex()).
		Str("token", ev.Token.Hex()).
		Str("subscription_id", ev.SubscriptionID).
		Msg("payment event")
}
