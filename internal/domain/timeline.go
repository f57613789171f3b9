package domain

import "time"

// Типы событий timeline и outbox.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"

	AggregateOrder = "order"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Status   OrderStatus
	Actor    string
	Reason   string
	Occurred time.Time
}
