package pricing

import (
	"math"
	"testing"

	"canteen-backend/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}

func TestGSTExcludeWithDiscount(t *testing.T) {
	got := CalculateOrderTotals([]Item{
		{BasePrice: 100, Quantity: 2, TaxRate: 5, GSTType: models.GSTExclude, DiscountPercentage: 10},
	})

	if got.Subtotal != 180 {
		t.Errorf("subtotal = %v, want 180", got.Subtotal)
	}
	if got.Tax != 9 {
		t.Errorf("tax = %v, want 9", got.Tax)
	}
	if got.TotalDiscount != 20 {
		t.Errorf("totalDiscount = %v, want 20", got.TotalDiscount)
	}
	if got.Total != 189 {
		t.Errorf("total = %v, want 189", got.Total)
	}
}

func TestGSTInclude(t *testing.T) {
	got := CalculateOrderTotals([]Item{
		{BasePrice: 105, Quantity: 1, TaxRate: 5, GSTType: models.GSTInclude},
	})

	if !almostEqual(got.Subtotal, 100) {
		t.Errorf("subtotal = %v, want 100", got.Subtotal)
	}
	if !almostEqual(got.Tax, 5) {
		t.Errorf("tax = %v, want 5", got.Tax)
	}
	if !almostEqual(got.Total, 105) {
		t.Errorf("total = %v, want 105", got.Total)
	}
}

func TestMixedCart(t *testing.T) {
	got := CalculateOrderTotals([]Item{
		{BasePrice: 100, Quantity: 2, TaxRate: 5, GSTType: models.GSTExclude, DiscountPercentage: 10},
		{BasePrice: 105, Quantity: 1, TaxRate: 5, GSTType: models.GSTInclude},
	})

	if !almostEqual(got.Subtotal, 280) {
		t.Errorf("subtotal = %v, want 280", got.Subtotal)
	}
	if !almostEqual(got.Tax, 14) {
		t.Errorf("tax = %v, want 14", got.Tax)
	}
	if !almostEqual(got.Total, 294) {
		t.Errorf("total = %v, want 294", got.Total)
	}
}

func TestTotalIsSubtotalPlusTax(t *testing.T) {
	carts := [][]Item{
		{{BasePrice: 33.33, Quantity: 3, TaxRate: 18, GSTType: models.GSTInclude, DiscountPercentage: 7}},
		{{BasePrice: 99.99, Quantity: 1, TaxRate: 12, GSTType: models.GSTExclude, DiscountPercentage: 2.5}},
		{
			{BasePrice: 45, Quantity: 4, TaxRate: 5, GSTType: models.GSTExclude},
			{BasePrice: 260, Quantity: 2, TaxRate: 18, GSTType: models.GSTInclude, DiscountPercentage: 15},
		},
	}
	for i, cart := range carts {
		got := CalculateOrderTotals(cart)
		if !almostEqual(got.Total, got.Subtotal+got.Tax) {
			t.Errorf("cart %d: total %v != subtotal %v + tax %v", i, got.Total, got.Subtotal, got.Tax)
		}
	}
}

func TestEmptyCart(t *testing.T) {
	got := CalculateOrderTotals(nil)
	if got.Total != 0 || got.Subtotal != 0 || got.Tax != 0 || got.TotalDiscount != 0 {
		t.Errorf("empty cart produced non-zero totals: %+v", got)
	}
}

func TestUnitPrice(t *testing.T) {
	if got := UnitPrice(100, 10); got != 90 {
		t.Errorf("UnitPrice(100, 10) = %v, want 90", got)
	}
	if got := UnitPrice(33.33, 0); got != 33.33 {
		t.Errorf("UnitPrice(33.33, 0) = %v, want 33.33", got)
	}
}

func TestWithinOnePaise(t *testing.T) {
	if !WithinOnePaise(189.00, 189.01) {
		t.Error("one paise apart should be within the window")
	}
	if WithinOnePaise(189.00, 189.02) {
		t.Error("two paise apart should be outside the window")
	}
}
