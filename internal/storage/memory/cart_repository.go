package memory

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartRepository хранит корзины по ID и индекс владелец -> корзина.
type cartRepository struct {
	tx *memTx
}

func (r cartRepository) GetByOwner(ownerID string) (domain.Cart, error) {
	cartID, ok := r.tx.st.cartOwners[ownerID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(r.tx.st.carts[cartID]), nil
}

func (r cartRepository) Create(cart domain.Cart) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, exists := r.tx.st.cartOwners[cart.OwnerID]; exists {
		return domain.ErrCartExists
	}
	if _, exists := r.tx.st.carts[cart.ID]; exists {
		return domain.ErrCartExists
	}
	r.tx.st.carts[cart.ID] = cloneCart(cart)
	r.tx.st.cartOwners[cart.OwnerID] = cart.ID
	return nil
}

// SaveLine вставляет строку или заменяет строку с тем же ID.
func (r cartRepository) SaveLine(line domain.CartLine) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cart, ok := r.tx.st.carts[line.CartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ID == line.ID {
			cart.Lines[i] = line
			r.tx.st.carts[cart.ID] = cart
			return nil
		}
	}
	cart.Lines = append(cart.Lines, line)
	r.tx.st.carts[cart.ID] = cart
	return nil
}

func (r cartRepository) DeleteLine(cartID, lineID string) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cart, ok := r.tx.st.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			r.tx.st.carts[cartID] = cart
			return nil
		}
	}
	return domain.ErrCartLineNotFound
}

func (r cartRepository) DeleteLines(cartID string) (int, error) {
	if err := r.tx.writable(); err != nil {
		return 0, err
	}
	cart, ok := r.tx.st.carts[cartID]
	if !ok {
		return 0, domain.ErrCartNotFound
	}
	removed := len(cart.Lines)
	cart.Lines = nil
	r.tx.st.carts[cartID] = cart
	return removed, nil
}

func (r cartRepository) Touch(cartID string, at time.Time) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cart, ok := r.tx.st.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	cart.UpdatedAt = at
	r.tx.st.carts[cartID] = cart
	return nil
}

var _ domain.CartRepository = cartRepository{}
