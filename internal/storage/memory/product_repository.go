package memory

import (
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productRepository работает со срезом каталога внутри транзакции.
type productRepository struct {
	tx *memTx
}

func (r productRepository) Get(id string) (domain.Product, error) {
	product, ok := r.tx.st.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Reserve списывает остаток, если товар в продаже и единиц достаточно.
func (r productRepository) Reserve(id string, qty int32) (domain.Product, error) {
	if err := r.tx.writable(); err != nil {
		return domain.Product{}, err
	}
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	product, ok := r.tx.st.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if !product.Available() {
		return domain.Product{}, fmt.Errorf("product %q: %w", product.Name, domain.ErrProductUnavailable)
	}
	if product.Stock < qty {
		return domain.Product{}, domain.NewStockConflict(product, qty)
	}

	product.Stock -= qty
	product.Sold += qty
	product.UpdatedAt = r.tx.now()
	r.tx.st.products[id] = product
	return product, nil
}

// Release возвращает единицы на склад. Sold не уходит ниже нуля.
func (r productRepository) Release(id string, qty int32) (domain.Product, error) {
	if err := r.tx.writable(); err != nil {
		return domain.Product{}, err
	}
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	product, ok := r.tx.st.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	product.Stock += qty
	product.Sold -= qty
	if product.Sold < 0 {
		product.Sold = 0
	}
	product.UpdatedAt = r.tx.now()
	r.tx.st.products[id] = product
	return product, nil
}

var _ domain.ProductRepository = productRepository{}
