package order

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// GetOrder возвращает заказ владельцу или администратору.
func (s *Service) GetOrder(ctx context.Context, caller domain.Caller, orderID string) (order domain.Order, err error) {
	ctx, span := s.startSpan(ctx, "order.get", attribute.String("order_id", orderID))
	defer func() { finishSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	err = s.store.View(ctx, func(tx domain.Tx) error {
		current, err := tx.Orders().Get(strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		if !caller.CanAccess(current) {
			return domain.ErrOrderForbidden
		}
		order = current
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListOrders возвращает заказы вызывающего.
func (s *Service) ListOrders(ctx context.Context, caller domain.Caller, filter domain.OrderFilter) (domain.OrderPage, error) {
	if err := caller.Validate(); err != nil {
		return domain.OrderPage{}, err
	}
	filter.OwnerID = caller.ID
	return s.list(ctx, filter)
}

// ListAllOrders возвращает заказы всех покупателей; только для администратора.
func (s *Service) ListAllOrders(ctx context.Context, caller domain.Caller, filter domain.OrderFilter) (domain.OrderPage, error) {
	if err := caller.Validate(); err != nil {
		return domain.OrderPage{}, err
	}
	if !caller.Admin {
		return domain.OrderPage{}, domain.ErrAdminRequired
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter domain.OrderFilter) (page domain.OrderPage, err error) {
	ctx, span := s.startSpan(ctx, "order.list", attribute.String("owner_id", filter.OwnerID))
	defer func() { finishSpan(span, err) }()

	filter, err = filter.Normalize()
	if err != nil {
		return domain.OrderPage{}, err
	}
	err = s.store.View(ctx, func(tx domain.Tx) error {
		var listErr error
		page, listErr = tx.Orders().List(filter)
		return listErr
	})
	return page, err
}

// Timeline возвращает историю заказа владельцу или администратору.
func (s *Service) Timeline(ctx context.Context, caller domain.Caller, orderID string) ([]domain.TimelineEvent, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var events []domain.TimelineEvent
	err := s.store.View(ctx, func(tx domain.Tx) error {
		current, err := tx.Orders().Get(strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		if !caller.CanAccess(current) {
			return domain.ErrOrderForbidden
		}
		events, err = tx.Timeline().List(current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
