package domain

import "time"

// OrderEvent — полезная нагрузка outbox-сообщения по заказу.
type OrderEvent struct {
	EventType      string      `json:"event_type"`
	OrderID        string      `json:"order_id"`
	OwnerID        string      `json:"owner_id"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	TotalMinor     int64       `json:"total_minor"`
	ItemCount      int32       `json:"item_count"`
	Actor          string      `json:"actor"`
	Reason         string      `json:"reason,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// NewOrderEvent собирает событие по текущему состоянию заказа.
func NewOrderEvent(eventType string, order Order, previous OrderStatus, actor, reason string, at time.Time) OrderEvent {
	return OrderEvent{
		EventType:      eventType,
		OrderID:        order.ID,
		OwnerID:        order.OwnerID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalMinor:     order.TotalMinor,
		ItemCount:      order.ItemCount(),
		Actor:          actor,
		Reason:         reason,
		OccurredAt:     at,
	}
}
