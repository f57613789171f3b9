package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var errReadOnlyTx = errors.New("memory store: write attempted in read-only transaction")

// state — всё содержимое хранилища. Транзакция работает с копией и подменяет
// оригинал только при успешном завершении.
type state struct {
	products   map[string]domain.Product
	shipping   map[int64]domain.ShippingMethod
	coupons    map[string]domain.Coupon
	carts      map[string]domain.Cart
	cartOwners map[string]string
	orders     map[string]domain.Order
	timeline   map[string][]domain.TimelineEvent
	outbox     map[string]outboxRecord
	outboxSeq  []string
}

func newState() *state {
	return &state{
		products:   make(map[string]domain.Product),
		shipping:   make(map[int64]domain.ShippingMethod),
		coupons:    make(map[string]domain.Coupon),
		carts:      make(map[string]domain.Cart),
		cartOwners: make(map[string]string),
		orders:     make(map[string]domain.Order),
		timeline:   make(map[string][]domain.TimelineEvent),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:   make(map[string]domain.Product, len(s.products)),
		shipping:   make(map[int64]domain.ShippingMethod, len(s.shipping)),
		coupons:    make(map[string]domain.Coupon, len(s.coupons)),
		carts:      make(map[string]domain.Cart, len(s.carts)),
		cartOwners: make(map[string]string, len(s.cartOwners)),
		orders:     make(map[string]domain.Order, len(s.orders)),
		timeline:   make(map[string][]domain.TimelineEvent, len(s.timeline)),
		outbox:     make(map[string]outboxRecord, len(s.outbox)),
		outboxSeq:  append([]string(nil), s.outboxSeq...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.shipping {
		c.shipping[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = cloneCart(v)
	}
	for k, v := range s.cartOwners {
		c.cartOwners[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.timeline {
		c.timeline[k] = append([]domain.TimelineEvent(nil), v...)
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Пишущие транзакции сериализуются одним мьютексом, поэтому проверка остатка
// и списание выполняются атомарно.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx выполняет fn над копией состояния и фиксирует её, если fn не вернула ошибку.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&memTx{st: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// View выполняет fn над текущим состоянием без права записи.
func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memTx{st: s.st, now: s.now, readOnly: true})
}

// PutProduct добавляет или заменяет товар (наполнение каталога в dev/тестах).
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// PutShippingMethod добавляет способ доставки в справочник.
func (s *Store) PutShippingMethod(m domain.ShippingMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.shipping[m.ID] = m
}

// PutCoupon добавляет купон в справочник.
func (s *Store) PutCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.coupons[c.ID] = c
}

// Product возвращает текущее состояние товара.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.products[id]
	return p, ok
}

// Coupon возвращает текущее состояние купона.
func (s *Store) Coupon(id string) (domain.Coupon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.st.coupons[id]
	return c, ok
}

// memTx реализует domain.Tx поверх снимка состояния.
type memTx struct {
	st       *state
	now      func() time.Time
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return errReadOnlyTx
	}
	return nil
}

func (t *memTx) Products() domain.ProductRepository         { return productRepository{tx: t} }
func (t *memTx) Carts() domain.CartRepository               { return cartRepository{tx: t} }
func (t *memTx) Orders() domain.OrderRepository             { return orderRepository{tx: t} }
func (t *memTx) Coupons() domain.CouponRepository           { return couponRepository{tx: t} }
func (t *memTx) ShippingMethods() domain.ShippingRepository { return shippingRepository{tx: t} }
func (t *memTx) Timeline() domain.TimelineRepository        { return timelineRepository{tx: t} }
func (t *memTx) Outbox() domain.OutboxWriter                { return outboxWriter{tx: t} }

func cloneCart(c domain.Cart) domain.Cart {
	c.Lines = append([]domain.CartLine(nil), c.Lines...)
	return c
}

func cloneOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	if o.ExpectedDelivery != nil {
		v := *o.ExpectedDelivery
		o.ExpectedDelivery = &v
	}
	if o.CancelledAt != nil {
		v := *o.CancelledAt
		o.CancelledAt = &v
	}
	return o
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*memTx)(nil)
)
