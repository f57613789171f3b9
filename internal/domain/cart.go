package domain

import "time"

// Cart — корзина покупателя. У владельца ровно одна корзина,
// она создаётся при первом обращении и не удаляется после оформления заказа.
type Cart struct {
	ID        string
	OwnerID   string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine — строка корзины. На пару (корзина, товар) приходится не больше одной строки.
type CartLine struct {
	ID        string
	CartID    string
	ProductID string
	Qty       int32
	AddedAt   time.Time
}

// TotalQty возвращает суммарное количество единиц в корзине.
func (c Cart) TotalQty() int32 {
	var total int32
	for _, line := range c.Lines {
		total += line.Qty
	}
	return total
}

// LineByProduct ищет строку по товару.
func (c Cart) LineByProduct(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// LineByID ищет строку по идентификатору.
func (c Cart) LineByID(lineID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return CartLine{}, false
}

// Empty сообщает, что в корзине нет строк.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
