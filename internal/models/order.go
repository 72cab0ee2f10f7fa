package models

import (
	"time"

	"gorm.io/datatypes"
)

// Order sources. Everything except "pos" and "kiosk" counts as an
// online source for fulfillment fan-out.
const (
	SourcePOS      = "pos"
	SourceQRCode   = "qr_code"
	SourceQROrder  = "qr_order"
	SourceOnline   = "online"
	SourceWeb      = "web"
	SourceApp      = "app"
	SourceCustomer = "customer"
	SourceKiosk    = "kiosk"
)

// Payment statuses. pending is the only non-terminal state.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Fulfillment statuses.
const (
	OrderPlaced    = "placed"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderItem is a priced line snapshotted from the catalog at creation
// time. Later catalog edits never change a persisted order.
type OrderItem struct {
	ProductID          string  `json:"productId"`
	Name               string  `json:"name"`
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unitPrice"`
	BasePrice          float64 `json:"basePrice"`
	TaxRate            float64 `json:"taxRate"`
	GSTType            string  `json:"gstType"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Size               string  `json:"size,omitempty"`
	CategoryID         string  `json:"categoryId,omitempty"`
}

type Order struct {
	ID          string                          `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string                          `gorm:"size:36;uniqueIndex:idx_orders_number,priority:1" json:"tenantId"`
	OrderNumber int64                           `gorm:"uniqueIndex:idx_orders_number,priority:2" json:"orderNumber"`
	Source      string                          `gorm:"size:20" json:"source"`
	Items       datatypes.JSONType[[]OrderItem] `json:"items"`

	CustomerName  string `gorm:"size:120" json:"customerName,omitempty"`
	CustomerPhone string `gorm:"size:20" json:"customerPhone,omitempty"`
	QRName        string `gorm:"size:120" json:"qrName,omitempty"`
	Seat          string `gorm:"size:20" json:"seat,omitempty"`

	Subtotal      float64 `gorm:"type:decimal(10,2)" json:"subtotal"`
	Tax           float64 `gorm:"type:decimal(10,2)" json:"tax"`
	TotalDiscount float64 `gorm:"type:decimal(10,2)" json:"totalDiscount"`
	Total         float64 `gorm:"type:decimal(10,2)" json:"total"`

	PaymentProvider string `gorm:"size:20" json:"paymentProvider,omitempty"`
	PaymentStatus   string `gorm:"size:20;default:pending" json:"paymentStatus"`
	PaymentMethod   string `gorm:"size:20" json:"paymentMethod,omitempty"`
	ProviderOrderID string `gorm:"size:64" json:"providerOrderId,omitempty"`
	TransactionID   string `gorm:"size:64" json:"transactionId,omitempty"`
	PaymentID       string `gorm:"size:64" json:"paymentId,omitempty"`

	Status string `gorm:"size:20;default:placed" json:"status"`

	// ClientRef echoes the offline queue id; the unique index makes
	// at-least-once replay from counter devices idempotent.
	ClientRef *string `gorm:"size:64;uniqueIndex:idx_orders_clientref" json:"clientRef,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OnlineSource reports whether the order came in over a customer-facing
// online channel (these are the ones fanned out to counter devices).
func OnlineSource(source string) bool {
	switch source {
	case SourceQRCode, SourceQROrder, SourceOnline, SourceWeb, SourceApp, SourceCustomer:
		return true
	}
	return false
}

// TerminalPayment reports whether a payment status can no longer move.
func TerminalPayment(status string) bool {
	switch status {
	case PaymentPaid, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}
