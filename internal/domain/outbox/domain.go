package outbox

import (
	"context"
	"time"
)

type Status string

type Kind int

const (
	// KindNotificationsBulk carries a serialized bulk-notification
	// job recorded in the same transaction as the message insert.
	KindNotificationsBulk Kind = 1
)

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

// KindHandler dispatches one picked message. The idempotency key is
// passed through so publishers can reuse it as the downstream dedup
// identity.
type KindHandler func(ctx context.Context, key string, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)
