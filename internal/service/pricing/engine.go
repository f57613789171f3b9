// Package pricing считает суммы корзины и заказа: цену позиции, доставку и скидку по купону.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Line — товар и количество для расчёта.
type Line struct {
	Product domain.Product
	Qty     int32
}

// ShippingQuote — результат выбора способа доставки.
type ShippingQuote struct {
	// Method пуст, если доставка не выбрана.
	Method   *domain.ShippingMethod
	FeeMinor int64
}

// Breakdown — разложение итоговой суммы заказа.
type Breakdown struct {
	SubtotalMinor    int64
	ShippingFeeMinor int64
	DiscountMinor    int64
	TotalMinor       int64
}

// Engine применяет ценовые правила. Сам ничего не хранит.
type Engine struct{}

// NewEngine создаёт движок расчёта цен.
func NewEngine() *Engine {
	return &Engine{}
}

// LineTotal — действующая цена за единицу, умноженная на количество.
func (e *Engine) LineTotal(product domain.Product, qty int32) int64 {
	return product.UnitPriceMinor() * int64(qty)
}

// Subtotal суммирует позиции по текущим ценам.
func (e *Engine) Subtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += e.LineTotal(line.Product, line.Qty)
	}
	return total
}

// ShippingFee возвращает стоимость доставки. methodID == 0 означает без доставки.
func (e *Engine) ShippingFee(repo domain.ShippingRepository, methodID int64) (ShippingQuote, error) {
	if methodID == 0 {
		return ShippingQuote{}, nil
	}
	method, err := repo.Get(methodID)
	if err != nil {
		return ShippingQuote{}, err
	}
	return ShippingQuote{Method: &method, FeeMinor: method.FeeMinor}, nil
}

// Discount считает скидку купона. Неприменимый купон даёт ноль.
// Процент округляется до минимальной единицы half-up, фиксированная сумма
// не превышает subtotal.
func (e *Engine) Discount(coupon *domain.Coupon, subtotal int64, now time.Time) int64 {
	if coupon == nil || subtotal <= 0 || !coupon.Applicable(now) {
		return 0
	}

	var discount int64
	switch coupon.Kind {
	case domain.DiscountPercent:
		rate := min(max(coupon.Value, 0), 100)
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(rate)).
			Div(hundred).
			Round(0).
			IntPart()
	case domain.DiscountFixed:
		discount = max(coupon.Value, 0)
	}
	return min(discount, subtotal)
}

// Total = subtotal + доставка - скидка.
func (e *Engine) Total(subtotal, shippingFee, discount int64) int64 {
	return subtotal + shippingFee - discount
}

// Quote собирает полный расчёт заказа.
func (e *Engine) Quote(lines []Line, shipping ShippingQuote, coupon *domain.Coupon, now time.Time) (Breakdown, error) {
	if len(lines) == 0 {
		return Breakdown{}, domain.ErrEmptyCart
	}
	subtotal := e.Subtotal(lines)
	discount := e.Discount(coupon, subtotal, now)
	return Breakdown{
		SubtotalMinor:    subtotal,
		ShippingFeeMinor: shipping.FeeMinor,
		DiscountMinor:    discount,
		TotalMinor:       e.Total(subtotal, shipping.FeeMinor, discount),
	}, nil
}
