package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
)

// Cancel отменяет заказ покупателем. Разрешено только из pending_confirmation;
// остатки возвращаются на склад в той же транзакции.
func (s *Service) Cancel(ctx context.Context, caller domain.Caller, orderID string) (order domain.Order, err error) {
	ctx, span := s.startSpan(ctx, "order.cancel", attribute.String("order_id", orderID))
	defer func() { finishSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	orderID = strings.TrimSpace(orderID)

	var released int32
	err = s.withRetry(ctx, "cancel", orderID, func() error {
		return s.store.WithinTx(ctx, func(tx domain.Tx) error {
			current, err := tx.Orders().Get(orderID)
			if err != nil {
				return err
			}
			if !caller.CanAccess(current) {
				return domain.ErrOrderForbidden
			}
			if current.Status != domain.OrderStatusPendingConfirmation {
				return fmt.Errorf("order %s is %s: %w", current.ID, current.Status, domain.ErrOrderNotCancelable)
			}

			previous := current.Status
			current.Status = domain.OrderStatusCancelled
			released, err = s.releaseOnce(tx, &current)
			if err != nil {
				return err
			}
			current.UpdatedAt = s.now()
			if err := tx.Orders().Save(current); err != nil {
				return err
			}
			current.Version++

			if err := s.record(tx, current, domain.EventOrderCancelled, previous, caller.ActorLabel(), "cancelled by customer"); err != nil {
				return err
			}
			order = current
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordCancelled("customer")
	s.metrics.RecordTransition(string(domain.OrderStatusPendingConfirmation), string(domain.OrderStatusCancelled))
	s.metrics.RecordUnitsReleased(released)
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"owner_id": order.OwnerID,
		"released": released,
	}).Info("order cancelled")
	return order, nil
}

// AdminUpdateStatus переводит заказ в новый статус по таблице переходов.
// Повтор текущего статуса ничего не меняет, кроме ожидаемой даты доставки.
func (s *Service) AdminUpdateStatus(ctx context.Context, caller domain.Caller, orderID, rawStatus string, expectedDelivery *time.Time) (order domain.Order, err error) {
	ctx, span := s.startSpan(ctx, "order.update_status",
		attribute.String("order_id", orderID),
		attribute.String("target_status", rawStatus),
	)
	defer func() { finishSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	if !caller.Admin {
		return domain.Order{}, domain.ErrAdminRequired
	}
	target, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return domain.Order{}, err
	}
	orderID = strings.TrimSpace(orderID)

	var (
		previous domain.OrderStatus
		released int32
		changed  bool
	)
	err = s.withRetry(ctx, "update_status", orderID, func() error {
		changed, released = false, 0
		return s.store.WithinTx(ctx, func(tx domain.Tx) error {
			current, err := tx.Orders().Get(orderID)
			if err != nil {
				return err
			}
			previous = current.Status
			now := s.now()

			if target == current.Status {
				if expectedDelivery == nil {
					order = current
					return nil
				}
				at := expectedDelivery.UTC()
				current.ExpectedDelivery = &at
				current.UpdatedAt = now
				if err := tx.Orders().Save(current); err != nil {
					return err
				}
				current.Version++
				order = current
				return nil
			}

			if !current.Status.CanTransitionTo(target) {
				return fmt.Errorf("%s -> %s: %w", current.Status, target, domain.ErrTransitionNotAllowed)
			}

			current.Status = target
			switch {
			case expectedDelivery != nil:
				at := expectedDelivery.UTC()
				current.ExpectedDelivery = &at
			case target == domain.OrderStatusDelivered:
				current.ExpectedDelivery = &now
			}

			eventType := domain.EventOrderStatusChanged
			if target == domain.OrderStatusCancelled {
				eventType = domain.EventOrderCancelled
				if released, err = s.releaseOnce(tx, &current); err != nil {
					return err
				}
			}

			current.UpdatedAt = now
			if err := tx.Orders().Save(current); err != nil {
				return err
			}
			current.Version++

			if err := s.record(tx, current, eventType, previous, caller.ActorLabel(), ""); err != nil {
				return err
			}
			changed = true
			order = current
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	if changed {
		s.metrics.RecordTransition(string(previous), string(target))
		if target == domain.OrderStatusCancelled {
			s.metrics.RecordCancelled("admin")
			s.metrics.RecordUnitsReleased(released)
		}
		s.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"from":     previous,
			"to":       target,
		}).Info("order status updated")
	}
	return order, nil
}

// releaseOnce возвращает позиции заказа на склад, если это ещё не сделано,
// и фиксирует момент отмены.
func (s *Service) releaseOnce(tx domain.Tx, order *domain.Order) (int32, error) {
	if order.Cancelled() {
		return 0, nil
	}
	released, err := s.ledger.ReleaseLines(tx.Products(), inventory.ItemsFromOrder(*order))
	if err != nil {
		return 0, err
	}
	now := s.now()
	order.CancelledAt = &now
	return released, nil
}
