package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

type cartLineView struct {
	LineID         string `json:"line_id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
	OnPromotion    bool   `json:"on_promotion"`
	InStock        bool   `json:"in_stock"`
}

type cartView struct {
	CartID        string         `json:"cart_id"`
	OwnerID       string         `json:"owner_id"`
	Lines         []cartLineView `json:"lines"`
	TotalQty      int32          `json:"total_qty"`
	SubtotalMinor int64          `json:"subtotal_minor"`
	LineCount     int            `json:"line_count"`
}

func newCartView(s cart.Snapshot) cartView {
	view := cartView{
		CartID:        s.CartID,
		OwnerID:       s.OwnerID,
		Lines:         make([]cartLineView, 0, len(s.Lines)),
		TotalQty:      s.TotalQty,
		SubtotalMinor: s.SubtotalMinor,
		LineCount:     s.LineCount,
	}
	for _, line := range s.Lines {
		view.Lines = append(view.Lines, cartLineView(line))
	}
	return view
}

type orderSummaryView struct {
	OrderID          string     `json:"order_id"`
	Status           string     `json:"status"`
	SubtotalMinor    int64      `json:"subtotal_minor"`
	ShippingFeeMinor int64      `json:"shipping_fee_minor"`
	DiscountMinor    int64      `json:"discount_minor"`
	TotalMinor       int64      `json:"total_minor"`
	ItemCount        int32      `json:"item_count"`
	PlacedAt         time.Time  `json:"placed_at"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

func newOrderSummaryView(o domain.Order) orderSummaryView {
	s := order.Summarize(o)
	return orderSummaryView{
		OrderID:          s.OrderID,
		Status:           string(s.Status),
		SubtotalMinor:    s.SubtotalMinor,
		ShippingFeeMinor: s.ShippingFeeMinor,
		DiscountMinor:    s.DiscountMinor,
		TotalMinor:       s.TotalMinor,
		ItemCount:        s.ItemCount,
		PlacedAt:         s.PlacedAt,
		ExpectedDelivery: s.ExpectedDelivery,
		CancelledAt:      s.CancelledAt,
	}
}

type orderLineView struct {
	LineID         string `json:"line_id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

type customerView struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type orderDetailView struct {
	orderSummaryView
	OwnerID          string          `json:"owner_id"`
	Customer         customerView    `json:"customer"`
	PaymentMethod    string          `json:"payment_method"`
	ShippingMethodID *int64          `json:"shipping_method_id,omitempty"`
	CouponID         *string         `json:"coupon_id,omitempty"`
	Note             string          `json:"note,omitempty"`
	Lines            []orderLineView `json:"lines"`
	Version          int64           `json:"version"`
}

func newOrderDetailView(o domain.Order) orderDetailView {
	view := orderDetailView{
		orderSummaryView: newOrderSummaryView(o),
		OwnerID:          o.OwnerID,
		Customer:         customerView(o.Customer),
		PaymentMethod:    o.PaymentMethod,
		ShippingMethodID: o.ShippingMethodID,
		CouponID:         o.CouponID,
		Note:             o.Note,
		Lines:            make([]orderLineView, 0, len(o.Lines)),
		Version:          o.Version,
	}
	for _, line := range o.Lines {
		view.Lines = append(view.Lines, orderLineView{
			LineID:         line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Qty:            line.Qty,
			UnitPriceMinor: line.UnitPriceMinor,
			LineTotalMinor: line.TotalMinor(),
		})
	}
	return view
}

type orderPageView struct {
	Items    []orderSummaryView `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func newOrderPageView(p domain.OrderPage) orderPageView {
	view := orderPageView{
		Items:    make([]orderSummaryView, 0, len(p.Orders)),
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	for _, o := range p.Orders {
		view.Items = append(view.Items, newOrderSummaryView(o))
	}
	return view
}

type timelineEventView struct {
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newTimelineView(events []domain.TimelineEvent) []timelineEventView {
	out := make([]timelineEventView, 0, len(events))
	for _, e := range events {
		out = append(out, timelineEventView{
			Type:       e.Type,
			Status:     string(e.Status),
			Actor:      e.Actor,
			Reason:     e.Reason,
			OccurredAt: e.Occurred,
		})
	}
	return out
}
