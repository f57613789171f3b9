// Package cart управляет корзинами покупателей. Корзина только сверяется с остатком,
// резервирование выполняется при оформлении заказа.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
)

// Операции корзины в метриках.
const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

// missingCart задаёт поведение mutate, когда у владельца ещё нет корзины.
type missingCart int

const (
	// createCart — создать пустую корзину и применить изменение.
	createCart missingCart = iota
	// skipCart — изменение не нужно, вернуть пустой снимок.
	skipCart
	// rejectCart — строки заведомо нет, вернуть ErrCartLineNotFound.
	rejectCart
)

// Service реализует операции корзины поверх транзакционного хранилища.
type Service struct {
	store   domain.Store
	pricing *pricing.Engine
	metrics *metrics.CheckoutMetrics
	logger  *log.Entry
	now     func() time.Time
}

// NewService создаёт сервис корзины. metrics может быть nil.
func NewService(store domain.Store, engine *pricing.Engine, m *metrics.CheckoutMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	if engine == nil {
		engine = pricing.NewEngine()
	}
	return &Service{
		store:   store,
		pricing: engine,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate возвращает корзину владельца, создавая её при первом обращении.
func (s *Service) GetOrCreate(ctx context.Context, ownerID string) (Snapshot, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	err = s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, err := s.loadOrCreate(tx, ownerID)
		if err != nil {
			return err
		}
		snapshot, err = buildSnapshot(tx.Products(), s.pricing, cart)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// AddLine добавляет товар или увеличивает количество существующей строки.
func (s *Service) AddLine(ctx context.Context, ownerID, productID string, qty int32) (Snapshot, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Snapshot{}, domain.ErrProductIDRequired
	}
	if qty < 1 {
		return Snapshot{}, domain.ErrQtyInvalid
	}

	return s.mutate(ctx, ownerID, opAdd, createCart, func(tx domain.Tx, cart domain.Cart) error {
		product, err := tx.Products().Get(productID)
		if err != nil {
			return err
		}
		if !product.Available() {
			return fmt.Errorf("product %q: %w", product.Name, domain.ErrProductUnavailable)
		}

		line, exists := cart.LineByProduct(productID)
		wanted := qty
		if exists {
			wanted = addQty(line.Qty, qty)
		} else {
			line = domain.CartLine{
				ID:        uuid.NewString(),
				CartID:    cart.ID,
				ProductID: productID,
				AddedAt:   s.now(),
			}
		}
		if product.Stock < wanted {
			return domain.NewStockConflict(product, wanted)
		}

		line.Qty = wanted
		return tx.Carts().SaveLine(line)
	})
}

// UpdateLine задаёт новое количество строки.
func (s *Service) UpdateLine(ctx context.Context, ownerID, lineID string, qty int32) (Snapshot, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if qty < 1 {
		return Snapshot{}, domain.ErrQtyInvalid
	}

	return s.mutate(ctx, ownerID, opUpdate, rejectCart, func(tx domain.Tx, cart domain.Cart) error {
		line, ok := cart.LineByID(lineID)
		if !ok {
			return domain.ErrCartLineNotFound
		}

		product, err := tx.Products().Get(line.ProductID)
		if err != nil {
			return err
		}
		if !product.Available() {
			return fmt.Errorf("product %q: %w", product.Name, domain.ErrProductUnavailable)
		}
		if qty > product.Stock {
			return domain.NewStockConflict(product, qty)
		}

		line.Qty = qty
		return tx.Carts().SaveLine(line)
	})
}

// RemoveLine удаляет строку. Для отсутствующей или пустой корзины — no-op.
func (s *Service) RemoveLine(ctx context.Context, ownerID, lineID string) (Snapshot, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return Snapshot{}, err
	}

	return s.mutate(ctx, ownerID, opRemove, skipCart, func(tx domain.Tx, cart domain.Cart) error {
		if cart.Empty() {
			return nil
		}
		return tx.Carts().DeleteLine(cart.ID, lineID)
	})
}

// Clear удаляет все строки корзины.
func (s *Service) Clear(ctx context.Context, ownerID string) (Snapshot, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return Snapshot{}, err
	}

	return s.mutate(ctx, ownerID, opClear, skipCart, func(tx domain.Tx, cart domain.Cart) error {
		if cart.Empty() {
			return nil
		}
		_, err := tx.Carts().DeleteLines(cart.ID)
		return err
	})
}

// Count возвращает суммарное количество единиц; 0, если корзины нет.
func (s *Service) Count(ctx context.Context, ownerID string) (int32, error) {
	ownerID, err := normalizeOwner(ownerID)
	if err != nil {
		return 0, err
	}

	var count int32
	err = s.store.View(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().GetByOwner(ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrCartNotFound) {
				return nil
			}
			return err
		}
		count = cart.TotalQty()
		return nil
	})
	return count, err
}

// mutate загружает корзину под блокировкой, применяет fn и возвращает новый снимок.
// Отсутствующая корзина обрабатывается по missing.
func (s *Service) mutate(ctx context.Context, ownerID, op string, missing missingCart, fn func(tx domain.Tx, cart domain.Cart) error) (Snapshot, error) {
	var (
		snapshot Snapshot
		changed  bool
	)
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		var (
			cart domain.Cart
			err  error
		)
		if missing == createCart {
			cart, err = s.loadOrCreate(tx, ownerID)
		} else {
			cart, err = tx.Carts().GetByOwner(ownerID)
			if errors.Is(err, domain.ErrCartNotFound) {
				if missing == rejectCart {
					return domain.ErrCartLineNotFound
				}
				snapshot = Snapshot{OwnerID: ownerID, Lines: []LineView{}}
				return nil
			}
		}
		if err != nil {
			return err
		}

		if err := fn(tx, cart); err != nil {
			return err
		}
		if err := tx.Carts().Touch(cart.ID, s.now()); err != nil {
			return err
		}
		changed = true

		updated, err := tx.Carts().GetByOwner(ownerID)
		if err != nil {
			return err
		}
		snapshot, err = buildSnapshot(tx.Products(), s.pricing, updated)
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"owner_id":  ownerID,
			"operation": op,
		}).Debug("cart mutation rejected")
		return Snapshot{}, err
	}

	if changed {
		s.metrics.RecordCartMutation(op)
	}
	return snapshot, nil
}

// loadOrCreate возвращает корзину владельца или создаёт пустую.
func (s *Service) loadOrCreate(tx domain.Tx, ownerID string) (domain.Cart, error) {
	cart, err := tx.Carts().GetByOwner(ownerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return domain.Cart{}, err
	}

	now := s.now()
	cart = domain.Cart{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	if err := tx.Carts().Create(cart); err != nil {
		// Корзину успел создать параллельный запрос.
		if errors.Is(err, domain.ErrCartExists) {
			return tx.Carts().GetByOwner(ownerID)
		}
		return domain.Cart{}, err
	}
	s.logger.WithField("owner_id", ownerID).Debug("cart created")
	return cart, nil
}

// addQty складывает количества с насыщением на math.MaxInt32: такое значение
// всегда больше остатка и даёт конфликт вместо переполнения.
func addQty(current, delta int32) int32 {
	if delta > math.MaxInt32-current {
		return math.MaxInt32
	}
	return current + delta
}

func normalizeOwner(ownerID string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", domain.ErrOwnerRequired
	}
	return ownerID, nil
}
