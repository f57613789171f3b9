package order

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Summary — краткое представление заказа для ответов на оформление, отмену и списки.
type Summary struct {
	OrderID          string
	OwnerID          string
	Status           domain.OrderStatus
	SubtotalMinor    int64
	ShippingFeeMinor int64
	DiscountMinor    int64
	TotalMinor       int64
	ItemCount        int32
	PlacedAt         time.Time
	ExpectedDelivery *time.Time
	CancelledAt      *time.Time
}

// Summarize строит Summary по заказу.
func Summarize(order domain.Order) Summary {
	return Summary{
		OrderID:          order.ID,
		OwnerID:          order.OwnerID,
		Status:           order.Status,
		SubtotalMinor:    order.SubtotalMinor,
		ShippingFeeMinor: order.ShippingFeeMinor,
		DiscountMinor:    order.DiscountMinor,
		TotalMinor:       order.TotalMinor,
		ItemCount:        order.ItemCount(),
		PlacedAt:         order.PlacedAt,
		ExpectedDelivery: order.ExpectedDelivery,
		CancelledAt:      order.CancelledAt,
	}
}
