package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	t *pgTx
}

// GetByOwner читает корзину с блокировкой строки: параллельные изменения
// одной корзины выполняются последовательно.
func (r cartRepository) GetByOwner(ownerID string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, owner_id, created_at, updated_at
		FROM carts
		WHERE owner_id = $1`+r.t.forUpdate(), ownerID).
		Scan(&cart.ID, &cart.OwnerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}
	cart.CreatedAt = cart.CreatedAt.UTC()
	cart.UpdatedAt = cart.UpdatedAt.UTC()

	rows, err := r.t.tx.QueryContext(r.t.ctx, `
		SELECT id, cart_id, product_id, qty, added_at
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY added_at ASC, id ASC
	`, cart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &line.Qty, &line.AddedAt); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart line: %w", err)
		}
		line.AddedAt = line.AddedAt.UTC()
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart lines: %w", err)
	}
	return cart, nil
}

// Create вставляет корзину. ON CONFLICT не прерывает транзакцию, если корзину
// владельца уже создал конкурентный запрос.
func (r cartRepository) Create(cart domain.Cart) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO carts (id, owner_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT DO NOTHING
	`, cart.ID, cart.OwnerID, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartExists
	}
	return nil
}

func (r cartRepository) SaveLine(line domain.CartLine) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO cart_lines (id, cart_id, product_id, qty, added_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET qty = EXCLUDED.qty
	`, line.ID, line.CartID, line.ProductID, line.Qty, line.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cart line for product %s: %w", line.ProductID, domain.ErrConflict)
		}
		return fmt.Errorf("save cart line: %w", err)
	}
	return nil
}

func (r cartRepository) DeleteLine(cartID, lineID string) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND id = $2`, cartID, lineID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart line rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r cartRepository) DeleteLines(cartID string) (int, error) {
	res, err := r.t.tx.ExecContext(r.t.ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("clear cart lines: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cart lines rows affected: %w", err)
	}
	return int(affected), nil
}

func (r cartRepository) Touch(cartID string, at time.Time) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `UPDATE carts SET updated_at = $2 WHERE id = $1`, cartID, at)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

var _ domain.CartRepository = cartRepository{}
