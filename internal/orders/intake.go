// Package orders is the intake pipeline: it resolves carts against the
// catalog, gates on cafe stock, recomputes totals server-side and
// persists orders with per-tenant monotone numbers.
package orders

import (
	"time"

	"gorm.io/datatypes"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
	"canteen-backend/internal/pricing"
)

// DraftItem is one requested cart line. Prices are never taken from the
// client; only the product reference, quantity and size are.
type DraftItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

// ClientTotals is the client's advisory computation. It is accepted
// when it agrees with the server within one paise and discarded
// otherwise.
type ClientTotals struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	TotalDiscount float64 `json:"totalDiscount"`
	Total         float64 `json:"total"`
}

// Draft is an order as submitted by any of the three channels.
type Draft struct {
	TenantID      string        `json:"tenantId"`
	Source        string        `json:"source"`
	Items         []DraftItem   `json:"items"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	QRName        string        `json:"qrName,omitempty"`
	Seat          string        `json:"seat,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Totals        *ClientTotals `json:"totals,omitempty"`
	// ClientRef is the offline queue id; replays with the same ref
	// return the already-created order.
	ClientRef string `json:"clientRef,omitempty"`
}

func validSource(s string) bool {
	switch s {
	case models.SourcePOS, models.SourceQRCode, models.SourceQROrder,
		models.SourceOnline, models.SourceWeb, models.SourceApp,
		models.SourceCustomer, models.SourceKiosk:
		return true
	}
	return false
}

func customerChannel(s string) bool {
	switch s {
	case models.SourceCustomer, models.SourceQRCode, models.SourceQROrder:
		return true
	}
	return false
}

// BuildOrder runs the channel-independent part of intake: validation,
// catalog resolution with price snapshotting, the cafe stock gate and
// the authoritative total computation. It does not touch persistence.
func BuildOrder(draft Draft, lookup func(productID string) (*models.Product, error), cafeBalance map[string]float64, now time.Time) (*models.Order, error) {
	if draft.TenantID == "" {
		return nil, apperr.New(apperr.Validation, "tenantId is required")
	}
	if !validSource(draft.Source) {
		return nil, apperr.Newf(apperr.Validation, "unknown order source %q", draft.Source)
	}
	if len(draft.Items) == 0 {
		return nil, apperr.New(apperr.Validation, "order has no items")
	}
	if customerChannel(draft.Source) && (draft.QRName == "" || draft.Seat == "") {
		return nil, apperr.New(apperr.Validation, "customer orders must carry qrName and seat")
	}

	items := make([]models.OrderItem, 0, len(draft.Items))
	priced := make([]pricing.Item, 0, len(draft.Items))
	needed := map[string]int{}

	for _, di := range draft.Items {
		if di.Quantity <= 0 {
			return nil, apperr.Newf(apperr.Validation, "quantity for product %s must be positive", di.ProductID)
		}
		product, err := lookup(di.ProductID)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "unknown product %s", di.ProductID)
		}
		if !product.IsActive || !product.IsAvailable {
			return nil, apperr.Newf(apperr.Validation, "product %s is not available", product.Name)
		}

		needed[product.ID] += di.Quantity
		base := product.VariantPrice(di.Size)

		items = append(items, models.OrderItem{
			ProductID:          product.ID,
			Name:               product.Name,
			Quantity:           di.Quantity,
			UnitPrice:          pricing.UnitPrice(base, product.DiscountPercentage),
			BasePrice:          base,
			TaxRate:            product.TaxRate,
			GSTType:            product.GSTType,
			DiscountPercentage: product.DiscountPercentage,
			Size:               di.Size,
			CategoryID:         product.CategoryID,
		})
		priced = append(priced, pricing.Item{
			BasePrice:          base,
			Quantity:           di.Quantity,
			TaxRate:            product.TaxRate,
			GSTType:            product.GSTType,
			DiscountPercentage: product.DiscountPercentage,
		})
	}

	for productID, qty := range needed {
		if cafeBalance[productID] < float64(qty) {
			return nil, apperr.Newf(apperr.Validation, "insufficient stock for product %s", productID)
		}
	}

	totals := pricing.CalculateOrderTotals(priced)
	// Client totals are advisory: kept only when every figure agrees
	// with the server inside the rounding window, otherwise the
	// server's numbers stand. Checking the total alone would let a
	// client persist a breakdown that does not add up to it.
	if ct := draft.Totals; ct != nil &&
		pricing.WithinOnePaise(ct.Total, totals.Total) &&
		pricing.WithinOnePaise(ct.Subtotal, totals.Subtotal) &&
		pricing.WithinOnePaise(ct.Tax, totals.Tax) &&
		pricing.WithinOnePaise(ct.TotalDiscount, totals.TotalDiscount) {
		totals = pricing.Totals{
			Subtotal:      ct.Subtotal,
			Tax:           ct.Tax,
			TotalDiscount: ct.TotalDiscount,
			Total:         ct.Total,
		}
	}

	order := &models.Order{
		TenantID:      draft.TenantID,
		Source:        draft.Source,
		Items:         datatypes.NewJSONType(items),
		CustomerName:  draft.CustomerName,
		CustomerPhone: draft.CustomerPhone,
		QRName:        draft.QRName,
		Seat:          draft.Seat,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		TotalDiscount: totals.TotalDiscount,
		Total:         totals.Total,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: draft.PaymentMethod,
		Status:        models.OrderPlaced,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if draft.ClientRef != "" {
		ref := draft.TenantID + ":" + draft.ClientRef
		order.ClientRef = &ref
	}
	// Cash tenders settle at the counter; there is no gateway leg.
	if draft.PaymentMethod == "cash" {
		order.PaymentStatus = models.PaymentPaid
	}
	return order, nil
}
