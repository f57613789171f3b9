package domain

import (
	"context"
	"time"
)

// Tx — набор репозиториев, работающих в одной транзакции.
type Tx interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Coupons() CouponRepository
	ShippingMethods() ShippingRepository
	Timeline() TimelineRepository
	Outbox() OutboxWriter
}

// Store задаёт транзакционную границу для сценариев корзины и заказов.
type Store interface {
	// WithinTx выполняет fn в транзакции: при ошибке все изменения откатываются.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// View выполняет fn в транзакции только для чтения.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// OutboxWriter записывает события в transactional outbox внутри транзакции.
type OutboxWriter interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository используется воркером публикации.
type OutboxRepository interface {
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
