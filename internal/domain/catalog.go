package domain

import "time"

// DiscountKind — способ расчёта скидки по купону.
type DiscountKind string

const (
	// DiscountPercent — процент от суммы товаров.
	DiscountPercent DiscountKind = "percent"
	// DiscountFixed — фиксированная сумма в минимальных единицах.
	DiscountFixed DiscountKind = "fixed"
)

// CouponStatus — административный флаг купона.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

// Coupon — правило скидки, применяемое один раз при оформлении заказа.
type Coupon struct {
	ID   string
	Code string
	Kind DiscountKind
	// Value — процент (для DiscountPercent) или сумма в минимальных единицах.
	Value     int64
	Remaining int32
	Status    CouponStatus
	// Нулевые границы означают открытый интервал.
	ValidFrom time.Time
	ValidTo   time.Time
}

// Applicable проверяет статус, окно действия и оставшееся число использований.
func (c Coupon) Applicable(now time.Time) bool {
	if c.Status != CouponStatusActive {
		return false
	}
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidTo.IsZero() && now.After(c.ValidTo) {
		return false
	}
	return c.Remaining > 0
}

// ShippingMethod — способ доставки из справочника.
type ShippingMethod struct {
	ID       int64
	Name     string
	FeeMinor int64
	Province string
	District string
	Ward     string
	Street   string
	// DeliveryDays — ориентировочный срок доставки в днях.
	DeliveryDays int32
}
