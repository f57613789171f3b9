package domain

import "strings"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPendingConfirmation — заказ создан и ждёт подтверждения магазином.
	OrderStatusPendingConfirmation OrderStatus = "pending_confirmation"
	// OrderStatusConfirmed — магазин подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipping — заказ передан в доставку.
	OrderStatusShipping OrderStatus = "shipping"
	// OrderStatusDelivered — заказ вручён покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён, остатки возвращены на склад.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// transitions задаёт допустимые переходы. Терминальные статусы не имеют исходящих рёбер.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingConfirmation: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:           {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:            {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:           nil,
	OrderStatusCancelled:           nil,
}

// ParseOrderStatus приводит строку к статусу и отклоняет неизвестные значения.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrStatusUnknown
	}
	return status, nil
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo проверяет переход по таблице.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStatuses возвращает копию списка допустимых целевых статусов.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}
