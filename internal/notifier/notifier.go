// Package notifier informs the notification layer of terminal payment
// transitions. The notifier is an observer: it never writes back into the
// ledger and a publish failure never affects the transaction outcome.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/model"
)

// Channel is the Redis pub/sub channel terminal transitions are published on.
const Channel = "payments.transactions"

// Event is the published payload for a terminal transition.
type Event struct {
	TransactionID      string    `json:"transaction_id"`
	UserID             string    `json:"user_id"`
	Status             string    `json:"status"`
	VerificationStatus string    `json:"verification_status"`
	TotalAmount        int64     `json:"total_amount"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// RedisNotifier publishes terminal transitions to a Redis channel.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a notifier backed by the given Redis address.
func NewRedisNotifier(addr, password string, db int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisNotifier{client: client}
}

// TransactionFinalized publishes the terminal transition, best effort.
func (n *RedisNotifier) TransactionFinalized(ctx context.Context, t *model.PaymentTransaction) {
	event := Event{
		TransactionID:      t.ID.String(),
		UserID:             t.UserID.String(),
		Status:             string(t.Status),
		VerificationStatus: string(t.VerificationStatus),
		TotalAmount:        t.TotalAmount,
		OccurredAt:         time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", event.TransactionID).Msg("failed to encode notification event")
		return
	}

	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("transaction_id", event.TransactionID).Msg("failed to publish notification event")
	}
}

// Close releases the underlying Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// Nop is a no-op notifier used when no Redis address is configured.
type Nop struct{}

// TransactionFinalized does nothing.
func (Nop) TransactionFinalized(context.Context, *model.PaymentTransaction) {}
