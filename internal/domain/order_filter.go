package domain

import (
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrderSortField — поле сортировки списка заказов.
type OrderSortField string

const (
	SortByPlacedAt OrderSortField = "placed_at"
	SortByTotal    OrderSortField = "total"
	SortByStatus   OrderSortField = "status"
)

// OrderFilter задаёт выборку заказов.
type OrderFilter struct {
	// OwnerID ограничивает выборку заказами одного покупателя; пусто — все заказы.
	OwnerID string
	Status  OrderStatus
	From    time.Time
	To      time.Time
	// Search ищет по имени покупателя (без учёта регистра), телефону и ID заказа.
	Search    string
	SortBy    OrderSortField
	Ascending bool
	Page      int
	PageSize  int
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (f OrderFilter) Normalize() (OrderFilter, error) {
	if f.Status != "" && !f.Status.Valid() {
		return f, ErrStatusUnknown
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, ErrPageInvalid
	}
	switch f.SortBy {
	case SortByPlacedAt, SortByTotal, SortByStatus:
	case "":
		f.SortBy = SortByPlacedAt
	default:
		return f, ErrPageInvalid
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

// Offset возвращает смещение для текущей страницы.
func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// OrderPage — страница результатов.
type OrderPage struct {
	Orders   []Order
	Total    int
	Page     int
	PageSize int
}

// Matches проверяет заказ на соответствие фильтру (используется in-memory хранилищем).
func (f OrderFilter) Matches(o Order) bool {
	if f.OwnerID != "" && o.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && o.PlacedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && o.PlacedAt.After(f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.Customer.Name), needle) &&
			!strings.Contains(o.Customer.Phone, f.Search) &&
			!strings.Contains(o.ID, f.Search) {
			return false
		}
	}
	return true
}
