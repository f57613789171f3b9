package cart

import (
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
)

// LineView — строка корзины с актуальной ценой и наличием.
type LineView struct {
	LineID         string
	ProductID      string
	ProductName    string
	Qty            int32
	UnitPriceMinor int64
	LineTotalMinor int64
	OnPromotion    bool
	InStock        bool
}

// Snapshot — состояние корзины, которое возвращает каждая операция.
type Snapshot struct {
	CartID        string
	OwnerID       string
	Lines         []LineView
	TotalQty      int32
	SubtotalMinor int64
	LineCount     int
}

// buildSnapshot подтягивает товары строк. Товар, исчезнувший из каталога,
// остаётся в корзине с нулевой ценой и InStock=false.
func buildSnapshot(products domain.ProductRepository, engine *pricing.Engine, cart domain.Cart) (Snapshot, error) {
	snapshot := Snapshot{
		CartID:  cart.ID,
		OwnerID: cart.OwnerID,
		Lines:   make([]LineView, 0, len(cart.Lines)),
	}

	for _, line := range cart.Lines {
		view := LineView{LineID: line.ID, ProductID: line.ProductID, Qty: line.Qty}

		product, err := products.Get(line.ProductID)
		switch {
		case err == nil:
			view.ProductName = product.Name
			view.UnitPriceMinor = product.UnitPriceMinor()
			view.LineTotalMinor = engine.LineTotal(product, line.Qty)
			view.OnPromotion = product.OnPromotion()
			view.InStock = product.CanFulfil(line.Qty)
		case domain.IsNotFound(err):
		default:
			return Snapshot{}, err
		}

		snapshot.Lines = append(snapshot.Lines, view)
		snapshot.TotalQty += line.Qty
		snapshot.SubtotalMinor += view.LineTotalMinor
	}
	snapshot.LineCount = len(snapshot.Lines)
	return snapshot, nil
}
