package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type couponRepository struct {
	t *pgTx
}

func (r couponRepository) Get(id string) (domain.Coupon, error) {
	var (
		c         domain.Coupon
		kind      string
		status    string
		validFrom sql.NullTime
		validTo   sql.NullTime
	)
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, code, kind, value, remaining, status, valid_from, valid_to
		FROM coupons
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Code, &kind, &c.Value, &c.Remaining, &status, &validFrom, &validTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Coupon{}, domain.ErrCouponNotFound
		}
		return domain.Coupon{}, fmt.Errorf("select coupon: %w", err)
	}

	c.Kind = domain.DiscountKind(kind)
	c.Status = domain.CouponStatus(status)
	if validFrom.Valid {
		c.ValidFrom = validFrom.Time.UTC()
	}
	if validTo.Valid {
		c.ValidTo = validTo.Time.UTC()
	}
	return c, nil
}

// Redeem уменьшает остаток условным UPDATE; проигравший гонку получает ErrCouponExhausted.
func (r couponRepository) Redeem(id string) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		UPDATE coupons
		SET remaining = remaining - 1
		WHERE id = $1
		  AND remaining > 0
	`, id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("coupon rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.Get(id); err != nil {
		return err
	}
	return domain.ErrCouponExhausted
}

type shippingRepository struct {
	t *pgTx
}

func (r shippingRepository) Get(id int64) (domain.ShippingMethod, error) {
	var m domain.ShippingMethod
	err := r.t.tx.QueryRowContext(r.t.ctx, `
		SELECT id, name, fee_minor, province, district, ward, street, delivery_days
		FROM shipping_methods
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.FeeMinor, &m.Province, &m.District, &m.Ward, &m.Street, &m.DeliveryDays)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ShippingMethod{}, domain.ErrShippingMethodNotFound
		}
		return domain.ShippingMethod{}, fmt.Errorf("select shipping method: %w", err)
	}
	return m, nil
}

var (
	_ domain.CouponRepository   = couponRepository{}
	_ domain.ShippingRepository = shippingRepository{}
)
