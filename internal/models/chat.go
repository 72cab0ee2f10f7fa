package models

import "time"

// Chat sender sides. One thread per tenant, between the tenant's staff
// and the super-admin console.
const (
	ChatFromTenant = "tenant"
	ChatFromAdmin  = "admin"
)

type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"size:36;index" json:"tenantId"`
	Sender    string    `gorm:"size:10" json:"sender"`
	Text      string    `gorm:"size:2000" json:"text,omitempty"`
	ImageURL  string    `gorm:"size:255" json:"imageUrl,omitempty"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
