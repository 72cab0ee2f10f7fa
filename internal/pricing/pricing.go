// Package pricing is the order-total engine. It is a pure function of
// the item lines: the same math runs for the POS preview and for the
// server-authoritative totals at intake, so the two can only disagree
// by client-side staleness, never by implementation drift.
package pricing

import (
	"github.com/shopspring/decimal"

	"canteen-backend/internal/models"
)

// Item is one priced cart line. UnitPrice fields on orders are derived
// from these inputs, not the other way round.
type Item struct {
	BasePrice          float64
	Quantity           int
	TaxRate            float64
	GSTType            string
	DiscountPercentage float64
}

// Totals are rounded to two decimals; all intermediate math is exact.
type Totals struct {
	Subtotal      float64
	Tax           float64
	TotalDiscount float64
	Total         float64
}

var hundred = decimal.NewFromInt(100)

// CalculateOrderTotals computes subtotal, GST and discount for a cart.
//
// Per item: unit = basePrice x (1 - discount/100), line = unit x qty.
// INCLUDE prices carry their GST inside the line amount, so the taxable
// base is backed out of the line; EXCLUDE prices add GST on top.
func CalculateOrderTotals(items []Item) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	discount := decimal.Zero

	for _, it := range items {
		base := decimal.NewFromFloat(it.BasePrice)
		qty := decimal.NewFromInt(int64(it.Quantity))
		rate := decimal.NewFromFloat(it.TaxRate)
		disc := decimal.NewFromFloat(it.DiscountPercentage)

		unit := base.Mul(decimal.NewFromInt(1).Sub(disc.Div(hundred)))
		line := unit.Mul(qty)

		if it.GSTType == models.GSTInclude {
			taxable := line.Div(decimal.NewFromInt(1).Add(rate.Div(hundred)))
			subtotal = subtotal.Add(taxable)
			tax = tax.Add(line.Sub(taxable))
		} else {
			subtotal = subtotal.Add(line)
			tax = tax.Add(line.Mul(rate).Div(hundred))
		}

		discount = discount.Add(base.Mul(disc).Div(hundred).Mul(qty))
	}

	// Total is the sum of the rounded subtotal and tax, not a separate
	// rounding of the exact sum: the three published figures must
	// reconcile, and rounding each side independently can differ by a
	// paise.
	sub := subtotal.Round(2)
	gst := tax.Round(2)
	return Totals{
		Subtotal:      round2(sub),
		Tax:           round2(gst),
		TotalDiscount: round2(discount),
		Total:         round2(sub.Add(gst)),
	}
}

// UnitPrice returns the discounted unit price rounded to two decimals,
// used when snapshotting catalog prices onto order items.
func UnitPrice(basePrice, discountPercentage float64) float64 {
	base := decimal.NewFromFloat(basePrice)
	disc := decimal.NewFromFloat(discountPercentage)
	return round2(base.Mul(decimal.NewFromInt(1).Sub(disc.Div(hundred))))
}

// WithinOnePaise reports whether two amounts agree within the rounding
// window intake tolerates on client-supplied totals.
func WithinOnePaise(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
