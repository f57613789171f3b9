// Package inventory — единственная точка изменения складских счётчиков stock/sold.
package inventory

import (
	"fmt"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Item — количество единиц одного товара.
type Item struct {
	ProductID string
	Qty       int32
}

// Ledger выполняет резервирование и возврат остатков внутри транзакции вызывающего.
type Ledger struct{}

// NewLedger создаёт складской учёт.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve атомарно списывает qty единиц товара.
func (l *Ledger) Reserve(products domain.ProductRepository, productID string, qty int32) (domain.Product, error) {
	if productID == "" {
		return domain.Product{}, domain.ErrProductIDRequired
	}
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}
	return products.Reserve(productID, qty)
}

// Release возвращает qty единиц товара на склад.
func (l *Ledger) Release(products domain.ProductRepository, productID string, qty int32) (domain.Product, error) {
	if productID == "" {
		return domain.Product{}, domain.ErrProductIDRequired
	}
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}
	return products.Release(productID, qty)
}

// ReserveLines резервирует все позиции в порядке возрастания product id,
// чтобы конкурентные заказы блокировали строки товаров в одном порядке.
// Возвращает суммарное число списанных единиц.
func (l *Ledger) ReserveLines(products domain.ProductRepository, items []Item) (int32, error) {
	var units int32
	for _, item := range normalize(items) {
		if _, err := l.Reserve(products, item.ProductID, item.Qty); err != nil {
			return 0, fmt.Errorf("reserve %s: %w", item.ProductID, err)
		}
		units += item.Qty
	}
	return units, nil
}

// ReleaseLines — точная инверсия ReserveLines.
func (l *Ledger) ReleaseLines(products domain.ProductRepository, items []Item) (int32, error) {
	var units int32
	for _, item := range normalize(items) {
		if _, err := l.Release(products, item.ProductID, item.Qty); err != nil {
			return 0, fmt.Errorf("release %s: %w", item.ProductID, err)
		}
		units += item.Qty
	}
	return units, nil
}

// ItemsFromOrder собирает позиции заказа для возврата на склад.
func ItemsFromOrder(order domain.Order) []Item {
	items := make([]Item, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, Item{ProductID: line.ProductID, Qty: line.Qty})
	}
	return items
}

// normalize объединяет повторяющиеся товары и сортирует по id.
func normalize(items []Item) []Item {
	merged := make(map[string]int32, len(items))
	for _, item := range items {
		merged[item.ProductID] += item.Qty
	}

	out := make([]Item, 0, len(merged))
	for id, qty := range merged {
		out = append(out, Item{ProductID: id, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
