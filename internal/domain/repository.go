package domain

import "time"

// ProductRepository — доступ к карточкам товаров и атомарным складским операциям.
type ProductRepository interface {
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// Reserve одной условной операцией списывает qty со склада (stock -= qty, sold += qty),
	// если товар в продаже и остатка достаточно. Иначе возвращает ErrProductNotFound,
	// ErrProductUnavailable или *StockConflictError.
	Reserve(id string, qty int32) (Product, error)
	// Release возвращает qty на склад (stock += qty, sold -= qty).
	Release(id string, qty int32) (Product, error)
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	// GetByOwner возвращает корзину со строками и блокирует её до конца транзакции.
	GetByOwner(ownerID string) (Cart, error)
	// Create сохраняет новую корзину или возвращает ErrCartExists.
	Create(cart Cart) error
	// SaveLine вставляет строку или обновляет количество существующей.
	SaveLine(line CartLine) error
	// DeleteLine удаляет строку или возвращает ErrCartLineNotFound.
	DeleteLine(cartID, lineID string) error
	// DeleteLines очищает корзину и возвращает число удалённых строк.
	DeleteLines(cartID string) (int, error)
	// Touch обновляет отметку изменения корзины.
	Touch(cartID string, at time.Time) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями. Возвращает ErrOrderExists при дубликате ID.
	Create(order Order) error
	// Get возвращает заказ и блокирует его строку до конца транзакции.
	Get(id string) (Order, error)
	// Save применяет изменения статуса и дат с учётом optimistic locking.
	Save(order Order) error
	// List возвращает страницу заказов по фильтру.
	List(filter OrderFilter) (OrderPage, error)
}

// CouponRepository — справочник купонов.
type CouponRepository interface {
	Get(id string) (Coupon, error)
	// Redeem атомарно уменьшает остаток использований или возвращает ErrCouponExhausted.
	Redeem(id string) error
}

// ShippingRepository — справочник способов доставки.
type ShippingRepository interface {
	Get(id int64) (ShippingMethod, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}
