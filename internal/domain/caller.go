package domain

import "strings"

// Caller — уже проверенная внешним слоем идентичность вызывающего.
type Caller struct {
	ID    string
	Admin bool
}

// Validate проверяет, что идентификатор задан.
func (c Caller) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrOwnerRequired
	}
	return nil
}

// CanAccess проверяет доступ к заказу: администратор видит всё, покупатель — только свои.
func (c Caller) CanAccess(order Order) bool {
	return c.Admin || order.OwnedBy(c.ID)
}

// ActorLabel возвращает метку для timeline.
func (c Caller) ActorLabel() string {
	if c.Admin {
		return "admin:" + c.ID
	}
	return "customer:" + c.ID
}
