package kafka

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// EventType определяет тип события заказа в топике.
type EventType string

const (
	EventTypeOrderPlaced        EventType = domain.EventOrderPlaced
	EventTypeOrderCancelled     EventType = domain.EventOrderCancelled
	EventTypeOrderStatusChanged EventType = domain.EventOrderStatusChanged
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicDeadLetterQueue = "storefront.dlq" // сообщения, не доставленные после всех попыток
)

// Kafka headers сообщения
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
)
