package domain

import "time"

// ProductStatus описывает доступность товара к продаже.
type ProductStatus string

const (
	// ProductStatusAvailable — товар можно положить в корзину и заказать.
	ProductStatusAvailable ProductStatus = "available"
	// ProductStatusOutOfStock — товар временно отсутствует.
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
	// ProductStatusDiscontinued — товар снят с продажи.
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusAvailable, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	default:
		return false
	}
}

// Product — срез карточки товара, нужный для корзины и заказов.
// Каталог внешний: этот модуль меняет только Stock и Sold через складской учёт.
type Product struct {
	ID     string
	Name   string
	Status ProductStatus
	// PriceMinor — цена продажи в минимальных денежных единицах.
	PriceMinor int64
	// PromoPriceMinor — акционная цена; учитывается, только если ниже PriceMinor.
	PromoPriceMinor *int64
	Stock           int32
	Sold            int32
	UpdatedAt       time.Time
}

// UnitPriceMinor возвращает действующую цену за единицу.
func (p Product) UnitPriceMinor() int64 {
	if p.OnPromotion() {
		return *p.PromoPriceMinor
	}
	return p.PriceMinor
}

// OnPromotion сообщает, действует ли акционная цена.
func (p Product) OnPromotion() bool {
	return p.PromoPriceMinor != nil && *p.PromoPriceMinor >= 0 && *p.PromoPriceMinor < p.PriceMinor
}

// Available сообщает, продаётся ли товар.
func (p Product) Available() bool {
	return p.Status == ProductStatusAvailable
}

// CanFulfil проверяет, что товар в продаже и остатка хватает на qty.
func (p Product) CanFulfil(qty int32) bool {
	return p.Available() && p.Stock >= qty
}

// PromoPrice — вспомогательная функция для заполнения PromoPriceMinor.
func PromoPrice(v int64) *int64 {
	return &v
}
