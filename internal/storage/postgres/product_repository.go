package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `id, name, status, price_minor, promo_price_minor, stock, sold, updated_at`

type productRepository struct {
	t *pgTx
}

func (r productRepository) Get(id string) (domain.Product, error) {
	row := r.t.tx.QueryRowContext(r.t.ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// Reserve списывает остаток одним условным UPDATE. Если строка не изменилась,
// повторно читаем товар, чтобы вернуть точную причину отказа.
func (r productRepository) Reserve(id string, qty int32) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	row := r.t.tx.QueryRowContext(r.t.ctx, `
		UPDATE products
		SET stock = stock - $2,
		    sold = sold + $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'available'
		  AND stock >= $2
		RETURNING `+productColumns, id, qty)

	product, err := scanProduct(row)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("reserve stock: %w", err)
	}

	current, err := r.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	if !current.Available() {
		return domain.Product{}, fmt.Errorf("product %q: %w", current.Name, domain.ErrProductUnavailable)
	}
	return domain.Product{}, domain.NewStockConflict(current, qty)
}

func (r productRepository) Release(id string, qty int32) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	row := r.t.tx.QueryRowContext(r.t.ctx, `
		UPDATE products
		SET stock = stock + $2,
		    sold = GREATEST(sold - $2, 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns, id, qty)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("release stock: %w", err)
	}
	return product, nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p      domain.Product
		status string
		promo  sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &status, &p.PriceMinor, &promo, &p.Stock, &p.Sold, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.Status = domain.ProductStatus(status)
	if promo.Valid {
		p.PromoPriceMinor = domain.PromoPrice(promo.Int64)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

var _ domain.ProductRepository = productRepository{}
