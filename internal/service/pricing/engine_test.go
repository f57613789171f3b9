package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
)

type shippingStub map[int64]domain.ShippingMethod

func (s shippingStub) Get(id int64) (domain.ShippingMethod, error) {
	m, ok := s[id]
	if !ok {
		return domain.ShippingMethod{}, domain.ErrShippingMethodNotFound
	}
	return m, nil
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func activeCoupon(kind domain.DiscountKind, value int64) *domain.Coupon {
	return &domain.Coupon{ID: "c-1", Kind: kind, Value: value, Remaining: 3, Status: domain.CouponStatusActive}
}

func TestEngine_LineTotalUsesPromoPrice(t *testing.T) {
	engine := pricing.NewEngine()

	plain := domain.Product{PriceMinor: 150}
	assert.Equal(t, int64(450), engine.LineTotal(plain, 3))

	promo := domain.Product{PriceMinor: 150, PromoPriceMinor: domain.PromoPrice(100)}
	assert.Equal(t, int64(300), engine.LineTotal(promo, 3))

	higherPromo := domain.Product{PriceMinor: 150, PromoPriceMinor: domain.PromoPrice(200)}
	assert.Equal(t, int64(300), engine.LineTotal(higherPromo, 2))
}

func TestEngine_ShippingFee(t *testing.T) {
	engine := pricing.NewEngine()
	repo := shippingStub{7: {ID: 7, Name: "Courier", FeeMinor: 30, DeliveryDays: 2}}

	quote, err := engine.ShippingFee(repo, 0)
	require.NoError(t, err)
	assert.Nil(t, quote.Method)
	assert.Zero(t, quote.FeeMinor)

	quote, err = engine.ShippingFee(repo, 7)
	require.NoError(t, err)
	require.NotNil(t, quote.Method)
	assert.Equal(t, int64(30), quote.FeeMinor)

	_, err = engine.ShippingFee(repo, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Discount(t *testing.T) {
	engine := pricing.NewEngine()

	cases := []struct {
		name     string
		coupon   *domain.Coupon
		subtotal int64
		want     int64
	}{
		{"no coupon", nil, 500, 0},
		{"percent", activeCoupon(domain.DiscountPercent, 10), 500, 50},
		{"percent rounds half up", activeCoupon(domain.DiscountPercent, 15), 333, 50},
		{"percent rounds down below half", activeCoupon(domain.DiscountPercent, 10), 334, 33},
		{"percent clamped to 100", activeCoupon(domain.DiscountPercent, 150), 500, 500},
		{"fixed", activeCoupon(domain.DiscountFixed, 120), 500, 120},
		{"fixed clamped to subtotal", activeCoupon(domain.DiscountFixed, 900), 500, 500},
		{"inactive", &domain.Coupon{Kind: domain.DiscountFixed, Value: 50, Remaining: 1, Status: domain.CouponStatusInactive}, 500, 0},
		{"exhausted", &domain.Coupon{Kind: domain.DiscountFixed, Value: 50, Remaining: 0, Status: domain.CouponStatusActive}, 500, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.Discount(tc.coupon, tc.subtotal, now))
		})
	}
}

func TestEngine_Quote(t *testing.T) {
	engine := pricing.NewEngine()
	lines := []pricing.Line{
		{Product: domain.Product{PriceMinor: 100}, Qty: 3},
		{Product: domain.Product{PriceMinor: 250, PromoPriceMinor: domain.PromoPrice(200)}, Qty: 1},
	}

	breakdown, err := engine.Quote(lines, pricing.ShippingQuote{FeeMinor: 30}, activeCoupon(domain.DiscountPercent, 10), now)
	require.NoError(t, err)
	assert.Equal(t, pricing.Breakdown{
		SubtotalMinor:    500,
		ShippingFeeMinor: 30,
		DiscountMinor:    50,
		TotalMinor:       480,
	}, breakdown)

	_, err = engine.Quote(nil, pricing.ShippingQuote{}, nil, now)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}
