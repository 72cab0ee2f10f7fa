package models

import (
	"time"

	"gorm.io/datatypes"
)

// GST treatment of a product's base price.
const (
	GSTInclude = "INCLUDE"
	GSTExclude = "EXCLUDE"
)

type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"size:36;index" json:"tenantId"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// KioskType partitions products across kiosk counters (popcorn stand,
// beverages, etc.).
type KioskType struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"size:36;index" json:"tenantId"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Variant is a size-tiered price for a product (e.g. popcorn S/M/L).
type Variant struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

type Product struct {
	ID                 string                          `gorm:"primaryKey;size:36" json:"id"`
	TenantID           string                          `gorm:"size:36;index" json:"tenantId"`
	Name               string                          `gorm:"size:120;not null" json:"name"`
	Images             datatypes.JSONType[[]string]    `json:"images"`
	CategoryID         string                          `gorm:"size:36;index" json:"categoryId"`
	KioskTypeID        *string                         `gorm:"size:36" json:"kioskTypeId,omitempty"`
	Variants           datatypes.JSONType[[]Variant]   `json:"variants"`
	BasePrice          float64                         `gorm:"type:decimal(10,2)" json:"basePrice"`
	TaxRate            float64                         `gorm:"type:decimal(5,2)" json:"taxRate"`
	DiscountPercentage float64                         `gorm:"type:decimal(5,2)" json:"discountPercentage"`
	GSTType            string                          `gorm:"size:10;default:EXCLUDE" json:"gstType"`
	IsActive           bool                            `gorm:"default:true" json:"isActive"`
	IsAvailable        bool                            `gorm:"default:true" json:"isAvailable"`
	CreatedAt          time.Time                       `json:"createdAt"`
	UpdatedAt          time.Time                       `json:"updatedAt"`
}

// VariantPrice returns the price for a size, falling back to the base
// price when the size is unknown or empty.
func (p *Product) VariantPrice(size string) float64 {
	if size == "" {
		return p.BasePrice
	}
	for _, v := range p.Variants.Data() {
		if v.Size == size {
			return v.Price
		}
	}
	return p.BasePrice
}
