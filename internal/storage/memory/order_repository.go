package memory

import (
	"cmp"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository поверх снимка транзакции.
type orderRepository struct {
	tx *memTx
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r orderRepository) Create(order domain.Order) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, exists := r.tx.st.orders[order.ID]; exists {
		return domain.ErrOrderExists
	}
	// Сохраняем копию, чтобы избежать мутаций извне.
	r.tx.st.orders[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r orderRepository) Get(id string) (domain.Order, error) {
	order, ok := r.tx.st.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r orderRepository) Save(order domain.Order) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	current, ok := r.tx.st.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	order.Version++
	r.tx.st.orders[order.ID] = cloneOrder(order)
	return nil
}

// List фильтрует, сортирует и режет заказы на страницы.
func (r orderRepository) List(filter domain.OrderFilter) (domain.OrderPage, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return domain.OrderPage{}, err
	}

	matched := make([]domain.Order, 0, len(r.tx.st.orders))
	for _, order := range r.tx.st.orders {
		if filter.Matches(order) {
			matched = append(matched, order)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessOrder(matched[i], matched[j], filter.SortBy, filter.Ascending)
	})

	page := domain.OrderPage{Total: len(matched), Page: filter.Page, PageSize: filter.PageSize}
	offset := filter.Offset()
	if offset >= len(matched) {
		page.Orders = []domain.Order{}
		return page, nil
	}
	end := offset + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page.Orders = make([]domain.Order, 0, end-offset)
	for _, order := range matched[offset:end] {
		page.Orders = append(page.Orders, cloneOrder(order))
	}
	return page, nil
}

// lessOrder сравнивает заказы по полю сортировки; при равенстве — по дате и ID.
func lessOrder(a, b domain.Order, by domain.OrderSortField, asc bool) bool {
	c := 0
	switch by {
	case domain.SortByTotal:
		c = cmp.Compare(a.TotalMinor, b.TotalMinor)
	case domain.SortByStatus:
		c = cmp.Compare(a.Status, b.Status)
	}
	if c == 0 {
		c = a.PlacedAt.Compare(b.PlacedAt)
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if asc {
		return c < 0
	}
	return c > 0
}

var _ domain.OrderRepository = orderRepository{}
