package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// Ошибка несоответствия итоговой суммы заказа и слагаемых.
	ErrTotalMismatch = errors.New("order total does not match lines, shipping and discount")
	// Ошибка отрицательной суммы.
	ErrAmountNegative = errors.New("order amounts must be non-negative")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line unit price must be non-negative")
)

// OrderLine — позиция заказа. UnitPriceMinor фиксируется в момент оформления
// и больше не пересчитывается.
type OrderLine struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	Qty            int32
	UnitPriceMinor int64
}

// TotalMinor возвращает сумму позиции.
func (l OrderLine) TotalMinor() int64 {
	return int64(l.Qty) * l.UnitPriceMinor
}

// Customer — снимок контактных данных на момент заказа.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// Validate проверяет обязательные поля.
func (c Customer) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return ErrCustomerNameRequired
	case strings.TrimSpace(c.Phone) == "":
		return ErrPhoneRequired
	case strings.TrimSpace(c.Address) == "":
		return ErrAddressRequired
	}
	return nil
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID               string
	OwnerID          string
	Customer         Customer
	Status           OrderStatus
	PaymentMethod    string
	ShippingMethodID *int64
	CouponID         *string
	SubtotalMinor    int64
	ShippingFeeMinor int64
	DiscountMinor    int64
	TotalMinor       int64
	Note             string
	Lines            []OrderLine
	PlacedAt         time.Time
	ExpectedDelivery *time.Time
	CancelledAt      *time.Time
	UpdatedAt        time.Time
	Version          int64
}

// ItemCount возвращает суммарное количество единиц в заказе.
func (o Order) ItemCount() int32 {
	var count int32
	for _, line := range o.Lines {
		count += line.Qty
	}
	return count
}

// Cancelled сообщает, что остатки по заказу уже возвращены.
func (o Order) Cancelled() bool {
	return o.CancelledAt != nil
}

// OwnedBy проверяет владельца заказа.
func (o Order) OwnedBy(ownerID string) bool {
	return o.OwnerID == ownerID
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.OwnerID == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if err := o.Customer.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(o.PaymentMethod) == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.SubtotalMinor < 0 || o.ShippingFeeMinor < 0 || o.DiscountMinor < 0 || o.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем итог: сумма позиций + доставка - скидка.
	var subtotal int64
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if line.UnitPriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		subtotal += line.TotalMinor()
	}
	if subtotal != o.SubtotalMinor || subtotal+o.ShippingFeeMinor-o.DiscountMinor != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
