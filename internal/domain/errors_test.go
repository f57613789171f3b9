package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "version conflict error",
			err:  ErrOrderVersionConflict,
			want: true,
		},
		{
			name: "wrapped version conflict error",
			err:  errors.Join(ErrOrderVersionConflict, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrOrderNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsVersionConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsVersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"product not found", ErrProductNotFound, IsNotFound},
		{"cart line not found", fmt.Errorf("remove: %w", ErrCartLineNotFound), IsNotFound},
		{"qty invalid", ErrQtyInvalid, IsInvalidArgument},
		{"empty cart", ErrEmptyCart, IsInvalidArgument},
		{"not cancelable", ErrOrderNotCancelable, IsConflict},
		{"coupon exhausted", ErrCouponExhausted, IsConflict},
		{"foreign order", ErrOrderForbidden, IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.is(tt.err) {
				t.Fatalf("%v is not in expected category", tt.err)
			}
		})
	}

	if IsConflict(ErrProductNotFound) {
		t.Fatalf("not found must not be a conflict")
	}
}

func TestStockConflictError(t *testing.T) {
	product := Product{ID: "p-1", Name: "Cat food", Stock: 1}
	err := fmt.Errorf("reserve: %w", NewStockConflict(product, 2))

	if !errors.Is(err, ErrInsufficientStock) || !IsConflict(err) {
		t.Fatalf("stock conflict must match ErrInsufficientStock and ErrConflict")
	}

	conflict, ok := AsStockConflict(err)
	if !ok {
		t.Fatalf("expected StockConflictError in chain")
	}
	if conflict.Available != 1 || conflict.Requested != 2 {
		t.Fatalf("unexpected conflict payload: %+v", conflict)
	}
	if got := conflict.Error(); got != `product "Cat food": requested 2, only 1 available` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrOrderNotFound, CodeNotFound},
		{ErrPhoneRequired, CodeInvalidArgument},
		{NewStockConflict(Product{ID: "p-1"}, 1), CodeConflict},
		{ErrAdminRequired, CodeForbidden},
		{errors.New("db is down"), CodeInternal},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
