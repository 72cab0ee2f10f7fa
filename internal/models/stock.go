package models

import (
	"time"

	"gorm.io/datatypes"
)

// Stock ledger sources. The cafe ledger feeds POS and customer-menu
// availability; the theater ledger is the back-of-house book. They
// never mix.
const (
	StockTheater = "theater"
	StockCafe    = "cafe"
)

// StockDetail is one calendar day inside a monthly ledger document.
// Date is "YYYY-MM-DD". Balance is derived, never client-supplied:
// balance = carryForward + invord - used - expired - damage.
type StockDetail struct {
	Date         string  `json:"date"`
	InvordStock  float64 `json:"invordStock"`
	ExpiredStock float64 `json:"expiredStock"`
	CarryForward float64 `json:"carryForward"`
	UsedStock    float64 `json:"usedStock"`
	DamageStock  float64 `json:"damageStock"`
	Balance      float64 `json:"balance"`
}

// MonthlyStock is the per (tenant, product, source, year, month) ledger
// document. Details are append-only by date; a date never repeats.
type MonthlyStock struct {
	ID        string                            `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string                            `gorm:"size:36;uniqueIndex:idx_stock_doc,priority:1" json:"tenantId"`
	ProductID string                            `gorm:"size:36;uniqueIndex:idx_stock_doc,priority:2" json:"productId"`
	Source    string                            `gorm:"size:10;uniqueIndex:idx_stock_doc,priority:3" json:"source"`
	Year      int                               `gorm:"uniqueIndex:idx_stock_doc,priority:4" json:"year"`
	Month     int                               `gorm:"uniqueIndex:idx_stock_doc,priority:5" json:"month"`
	Details   datatypes.JSONType[[]StockDetail] `json:"stockDetails"`
	UpdatedAt time.Time                         `json:"updatedAt"`
}
