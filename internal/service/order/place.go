package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
)

// PlaceOrderInput — данные оформления заказа.
type PlaceOrderInput struct {
	Customer      domain.Customer
	PaymentMethod string
	// ShippingMethodID == 0 — без платной доставки.
	ShippingMethodID int64
	CouponID         string
	Note             string
	// ExpectedDelivery переопределяет расчётную дату доставки.
	ExpectedDelivery *time.Time
}

func (in PlaceOrderInput) normalized() PlaceOrderInput {
	in.Customer = domain.Customer{
		Name:    strings.TrimSpace(in.Customer.Name),
		Phone:   strings.TrimSpace(in.Customer.Phone),
		Address: strings.TrimSpace(in.Customer.Address),
	}
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.CouponID = strings.TrimSpace(in.CouponID)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func (in PlaceOrderInput) validate() error {
	if err := in.Customer.Validate(); err != nil {
		return err
	}
	if in.PaymentMethod == "" {
		return domain.ErrPaymentMethodRequired
	}
	if in.ShippingMethodID < 0 {
		return domain.ErrShippingMethodInvalid
	}
	return nil
}

// PlaceOrder превращает корзину владельца в заказ: пересчитывает цены, резервирует
// остатки и очищает корзину в одной транзакции.
func (s *Service) PlaceOrder(ctx context.Context, caller domain.Caller, in PlaceOrderInput) (order domain.Order, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "order.place", attribute.String("owner_id", caller.ID))
	defer func() {
		finishSpan(span, err)
		if err != nil {
			s.metrics.RecordCheckoutFailed(domain.ErrorCode(err), time.Since(started))
		}
	}()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	in = in.normalized()
	if err := in.validate(); err != nil {
		return domain.Order{}, err
	}

	orderID := uuid.NewString()
	var reserved int32
	err = s.withRetry(ctx, "place", orderID, func() error {
		return s.store.WithinTx(ctx, func(tx domain.Tx) error {
			var txErr error
			order, reserved, txErr = s.placeInTx(tx, caller, orderID, in)
			return txErr
		})
	})
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", caller.ID).Warn("checkout failed")
		return domain.Order{}, err
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int64("total_minor", order.TotalMinor),
	)
	s.metrics.RecordOrderPlaced(time.Since(started))
	s.metrics.RecordUnitsReserved(reserved)
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"owner_id":    order.OwnerID,
		"total_minor": order.TotalMinor,
		"items":       order.ItemCount(),
	}).Info("order placed")
	return order, nil
}

func (s *Service) placeInTx(tx domain.Tx, caller domain.Caller, orderID string, in PlaceOrderInput) (domain.Order, int32, error) {
	now := s.now()

	cart, err := tx.Carts().GetByOwner(caller.ID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.Order{}, 0, domain.ErrEmptyCart
	}
	if err != nil {
		return domain.Order{}, 0, err
	}
	if cart.Empty() {
		return domain.Order{}, 0, domain.ErrEmptyCart
	}

	lines := make([]pricing.Line, 0, len(cart.Lines))
	for _, cartLine := range cart.Lines {
		product, err := tx.Products().Get(cartLine.ProductID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.Order{}, 0, fmt.Errorf("product %s is no longer sold: %w", cartLine.ProductID, domain.ErrProductUnavailable)
			}
			return domain.Order{}, 0, err
		}
		if !product.Available() {
			return domain.Order{}, 0, fmt.Errorf("product %q: %w", product.Name, domain.ErrProductUnavailable)
		}
		if !product.CanFulfil(cartLine.Qty) {
			return domain.Order{}, 0, domain.NewStockConflict(product, cartLine.Qty)
		}
		lines = append(lines, pricing.Line{Product: product, Qty: cartLine.Qty})
	}

	shipping, err := s.pricing.ShippingFee(tx.ShippingMethods(), in.ShippingMethodID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, 0, domain.ErrShippingMethodInvalid
		}
		return domain.Order{}, 0, err
	}

	coupon, err := s.applicableCoupon(tx, in.CouponID, now)
	if err != nil {
		return domain.Order{}, 0, err
	}

	breakdown, err := s.pricing.Quote(lines, shipping, coupon, now)
	if err != nil {
		return domain.Order{}, 0, err
	}

	order := domain.Order{
		ID:               orderID,
		OwnerID:          caller.ID,
		Customer:         in.Customer,
		Status:           domain.OrderStatusPendingConfirmation,
		PaymentMethod:    in.PaymentMethod,
		SubtotalMinor:    breakdown.SubtotalMinor,
		ShippingFeeMinor: breakdown.ShippingFeeMinor,
		DiscountMinor:    breakdown.DiscountMinor,
		TotalMinor:       breakdown.TotalMinor,
		Note:             in.Note,
		Lines:            make([]domain.OrderLine, 0, len(lines)),
		PlacedAt:         now,
		UpdatedAt:        now,
	}
	if shipping.Method != nil {
		id := shipping.Method.ID
		order.ShippingMethodID = &id
	}
	if coupon != nil {
		id := coupon.ID
		order.CouponID = &id
	}
	order.ExpectedDelivery = s.expectedDelivery(in.ExpectedDelivery, shipping, now)

	items := make([]inventory.Item, 0, len(lines))
	for _, line := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			ProductID:      line.Product.ID,
			ProductName:    line.Product.Name,
			Qty:            line.Qty,
			UnitPriceMinor: line.Product.UnitPriceMinor(),
		})
		items = append(items, inventory.Item{ProductID: line.Product.ID, Qty: line.Qty})
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, 0, fmt.Errorf("order invariants violated: %w", errors.Join(errs...))
	}

	if coupon != nil {
		if err := tx.Coupons().Redeem(coupon.ID); err != nil {
			return domain.Order{}, 0, err
		}
	}
	if err := tx.Orders().Create(order); err != nil {
		return domain.Order{}, 0, err
	}

	reserved, err := s.ledger.ReserveLines(tx.Products(), items)
	if err != nil {
		return domain.Order{}, 0, err
	}

	if _, err := tx.Carts().DeleteLines(cart.ID); err != nil {
		return domain.Order{}, 0, err
	}
	if err := tx.Carts().Touch(cart.ID, now); err != nil {
		return domain.Order{}, 0, err
	}

	if err := s.record(tx, order, domain.EventOrderPlaced, "", caller.ActorLabel(), ""); err != nil {
		return domain.Order{}, 0, err
	}
	return order, reserved, nil
}

// applicableCoupon возвращает купон, если он существует и применим. Отсутствующий
// или неприменимый купон не даёт скидки и не считается ошибкой.
func (s *Service) applicableCoupon(tx domain.Tx, couponID string, now time.Time) (*domain.Coupon, error) {
	if couponID == "" {
		return nil, nil
	}
	coupon, err := tx.Coupons().Get(couponID)
	if err != nil {
		if domain.IsNotFound(err) {
			s.logger.WithField("coupon_id", couponID).Debug("coupon not found, no discount")
			return nil, nil
		}
		return nil, err
	}
	if !coupon.Applicable(now) {
		s.logger.WithField("coupon_id", couponID).Debug("coupon not applicable, no discount")
		return nil, nil
	}
	return &coupon, nil
}

func (s *Service) expectedDelivery(explicit *time.Time, shipping pricing.ShippingQuote, placedAt time.Time) *time.Time {
	if explicit != nil {
		at := explicit.UTC()
		return &at
	}
	days := s.cfg.DefaultDeliveryDays
	if shipping.Method != nil && shipping.Method.DeliveryDays > 0 {
		days = int(shipping.Method.DeliveryDays)
	}
	at := placedAt.AddDate(0, 0, days)
	return &at
}
