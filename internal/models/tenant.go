package models

import (
	"time"

	"gorm.io/datatypes"
)

// TenantDocuments holds the KYC/branding assets of a theater. Values
// are always URLs after a write; base64 data URIs are uploaded through
// the storage strategy before persisting.
type TenantDocuments struct {
	Logo     string   `json:"logo,omitempty"`
	Photo    string   `json:"photo,omitempty"`
	IDProofs []string `json:"idProofs,omitempty"`
}

// Tenant is a theater location. Every other entity is owned by exactly
// one tenant and cannot exist without it.
type Tenant struct {
	ID          string                                 `gorm:"primaryKey;size:36" json:"id"`
	Name        string                                 `gorm:"size:120;not null" json:"name"`
	Phone       string                                 `gorm:"size:20" json:"phone"`
	Email       string                                 `gorm:"size:120" json:"email"`
	Address     string                                 `gorm:"size:255" json:"address"`
	Documents   datatypes.JSONType[TenantDocuments]    `json:"documents"`
	GSTNumber   string                                 `gorm:"size:20" json:"gstNumber"`
	FSSAINumber string                                 `gorm:"size:20" json:"fssaiNumber"`
	IsActive    bool                                   `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time                              `json:"createdAt"`
	UpdatedAt   time.Time                              `json:"updatedAt"`
}

// TenantSettings is the per-tenant settings document read by the
// counter devices (alert sound, printer) and the pending-order sweeper.
type TenantSettings struct {
	ID                    string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID              string    `gorm:"size:36;uniqueIndex" json:"tenantId"`
	AlertAudioURL         string    `gorm:"size:255" json:"alertAudioUrl"`
	PrinterName           string    `gorm:"size:120" json:"printerName"`
	PushServerKey         string    `gorm:"size:255" json:"-"`
	PendingTimeoutMinutes int       `json:"pendingTimeoutMinutes"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
