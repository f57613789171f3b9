package domain

import (
	"errors"
	"fmt"
)

// Категории ошибок. Транспортный слой отображает их на коды ответа.
var (
	// ErrNotFound — запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — некорректные входные данные.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict — операция противоречит текущему состоянию.
	ErrConflict = errors.New("conflict")
	// ErrForbidden — вызывающий не владеет ресурсом.
	ErrForbidden = errors.New("forbidden")
)

var (
	// Ошибка отсутствующего идентификатора владельца.
	ErrOwnerRequired = fmt.Errorf("owner_id is required: %w", ErrInvalidArgument)
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = fmt.Errorf("product_id is required: %w", ErrInvalidArgument)
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQtyInvalid = fmt.Errorf("qty must be greater than zero: %w", ErrInvalidArgument)
	// Ошибка пустого имени покупателя.
	ErrCustomerNameRequired = fmt.Errorf("customer_name is required: %w", ErrInvalidArgument)
	// Ошибка пустого телефона.
	ErrPhoneRequired = fmt.Errorf("phone is required: %w", ErrInvalidArgument)
	// Ошибка пустого адреса доставки.
	ErrAddressRequired = fmt.Errorf("address is required: %w", ErrInvalidArgument)
	// Ошибка пустого способа оплаты.
	ErrPaymentMethodRequired = fmt.Errorf("payment_method is required: %w", ErrInvalidArgument)
	// ErrEmptyCart — оформление заказа из пустой корзины.
	ErrEmptyCart = fmt.Errorf("empty cart: %w", ErrInvalidArgument)
	// ErrShippingMethodInvalid — явно указанный способ доставки не найден при оформлении.
	ErrShippingMethodInvalid = fmt.Errorf("shipping method is invalid: %w", ErrInvalidArgument)
	// ErrStatusUnknown — статус заказа вне допустимого набора.
	ErrStatusUnknown = fmt.Errorf("unknown order status: %w", ErrInvalidArgument)
	// ErrPageInvalid — некорректные параметры выборки.
	ErrPageInvalid = fmt.Errorf("invalid page parameters: %w", ErrInvalidArgument)

	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCartNotFound — у владельца ещё нет корзины.
	ErrCartNotFound = fmt.Errorf("cart %w", ErrNotFound)
	// ErrCartLineNotFound — строка корзины не найдена.
	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrShippingMethodNotFound — способ доставки отсутствует в справочнике.
	ErrShippingMethodNotFound = fmt.Errorf("shipping method %w", ErrNotFound)
	// ErrCouponNotFound — купон отсутствует в справочнике.
	ErrCouponNotFound = fmt.Errorf("coupon %w", ErrNotFound)

	// ErrInsufficientStock — остатка не хватает для запрошенного количества.
	ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", ErrConflict)
	// ErrProductUnavailable — товар снят с продажи или отсутствует на складе.
	ErrProductUnavailable = fmt.Errorf("product is not available: %w", ErrConflict)
	// ErrOrderNotCancelable — отмена разрешена только из статуса ожидания подтверждения.
	ErrOrderNotCancelable = fmt.Errorf("only orders pending confirmation can be cancelled: %w", ErrConflict)
	// ErrTransitionNotAllowed — переход между статусами запрещён таблицей переходов.
	ErrTransitionNotAllowed = fmt.Errorf("status transition is not allowed: %w", ErrConflict)
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = fmt.Errorf("order version %w", ErrConflict)
	// ErrOrderExists — заказ с таким ID уже сохранён.
	ErrOrderExists = fmt.Errorf("order already exists: %w", ErrConflict)
	// ErrCartExists — корзина владельца уже создана конкурентным запросом.
	ErrCartExists = fmt.Errorf("cart already exists: %w", ErrConflict)
	// ErrCouponExhausted — лимит использований купона исчерпан конкурентным заказом.
	ErrCouponExhausted = fmt.Errorf("coupon has no remaining uses: %w", ErrConflict)

	// ErrOrderForbidden — заказ принадлежит другому покупателю.
	ErrOrderForbidden = fmt.Errorf("order belongs to another customer: %w", ErrForbidden)
	// ErrAdminRequired — операция доступна только администратору.
	ErrAdminRequired = fmt.Errorf("admin role is required: %w", ErrForbidden)

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки idempotency-хранилища.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
)

// StockConflictError описывает нехватку остатка по конкретному товару.
// Available сообщает клиенту, сколько единиц можно заказать.
type StockConflictError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

func (e *StockConflictError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("product %q: requested %d, only %d available", name, e.Requested, e.Available)
}

// Is позволяет сопоставлять ошибку с ErrInsufficientStock и ErrConflict.
func (e *StockConflictError) Is(target error) bool {
	return target == ErrInsufficientStock || target == ErrConflict
}

// NewStockConflict создаёт ошибку нехватки остатка.
func NewStockConflict(product Product, requested int32) *StockConflictError {
	available := product.Stock
	if available < 0 {
		available = 0
	}
	return &StockConflictError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   requested,
		Available:   available,
	}
}

// AsStockConflict извлекает StockConflictError из цепочки ошибок.
func AsStockConflict(err error) (*StockConflictError, bool) {
	var conflict *StockConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }

// Коды категорий ошибок для метрик и транспортного слоя.
const (
	CodeNotFound        = "not_found"
	CodeInvalidArgument = "invalid_argument"
	CodeConflict        = "conflict"
	CodeForbidden       = "forbidden"
	CodeInternal        = "internal"
)

// ErrorCode возвращает код категории ошибки; всё неизвестное считается internal.
func ErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsInvalidArgument(err):
		return CodeInvalidArgument
	case IsConflict(err):
		return CodeConflict
	case IsForbidden(err):
		return CodeForbidden
	default:
		return CodeInternal
	}
}
