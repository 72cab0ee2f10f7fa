package models

import (
	"time"

	"gorm.io/datatypes"
)

// QRSeat is one seat inside a QR group. The payload is the deep link
// the printed code resolves to; exactly one of ImageURL / ImageDataURL
// is set depending on whether object storage was available at
// generation time.
type QRSeat struct {
	Label        string    `json:"label"`
	Payload      string    `json:"qrPayload"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	ImageDataURL string    `json:"imageDataUrl,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// QRGroup is a named block of seats (usually a screen). Name is unique
// within the tenant's list only.
type QRGroup struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Screen string   `json:"screen,omitempty"`
	Seats  []QRSeat `json:"seats"`
}

// QRList is the per-tenant QR aggregate.
type QRList struct {
	ID        string                        `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string                        `gorm:"size:36;uniqueIndex" json:"tenantId"`
	Groups    datatypes.JSONType[[]QRGroup] `json:"groups"`
	UpdatedAt time.Time                     `json:"updatedAt"`
}
