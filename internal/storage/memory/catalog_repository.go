package memory

import "github.com/vladislavdragonenkov/storefront/internal/domain"

type couponRepository struct {
	tx *memTx
}

func (r couponRepository) Get(id string) (domain.Coupon, error) {
	coupon, ok := r.tx.st.coupons[id]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return coupon, nil
}

// Redeem уменьшает остаток использований купона на единицу.
func (r couponRepository) Redeem(id string) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	coupon, ok := r.tx.st.coupons[id]
	if !ok {
		return domain.ErrCouponNotFound
	}
	if coupon.Remaining <= 0 {
		return domain.ErrCouponExhausted
	}
	coupon.Remaining--
	r.tx.st.coupons[id] = coupon
	return nil
}

type shippingRepository struct {
	tx *memTx
}

func (r shippingRepository) Get(id int64) (domain.ShippingMethod, error) {
	method, ok := r.tx.st.shipping[id]
	if !ok {
		return domain.ShippingMethod{}, domain.ErrShippingMethodNotFound
	}
	return method, nil
}

var (
	_ domain.CouponRepository   = couponRepository{}
	_ domain.ShippingRepository = shippingRepository{}
)
