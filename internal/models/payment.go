package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment channels a tenant configures independently.
const (
	ChannelKiosk  = "kiosk"
	ChannelOnline = "online"
)

// Supported gateway providers.
const (
	ProviderRazorpay = "razorpay"
	ProviderPhonePe  = "phonepe"
	ProviderPaytm    = "paytm"
)

// AcceptedMethods flags which tender types the tenant takes on a
// channel.
type AcceptedMethods struct {
	Cash       bool `json:"cash"`
	Card       bool `json:"card"`
	UPI        bool `json:"upi"`
	Netbanking bool `json:"netbanking"`
	Wallet     bool `json:"wallet"`
}

// GatewayConfig is the per (tenant, channel) payment configuration.
// KeySecret is never logged and is stripped from public reads.
type GatewayConfig struct {
	ID              string                              `gorm:"primaryKey;size:36" json:"id"`
	TenantID        string                              `gorm:"size:36;uniqueIndex:idx_gateway_channel,priority:1" json:"tenantId"`
	Channel         string                              `gorm:"size:10;uniqueIndex:idx_gateway_channel,priority:2" json:"channel"`
	Enabled         bool                                `json:"enabled"`
	Provider        string                              `gorm:"size:20" json:"provider"`
	KeyID           string                              `gorm:"size:120" json:"keyId"`
	KeySecret       string                              `gorm:"size:120" json:"-"`
	AcceptedMethods datatypes.JSONType[AcceptedMethods] `json:"acceptedMethods"`
	UpdatedAt       time.Time                           `json:"updatedAt"`
}

// CounterDevice is a registered push target for fulfillment fan-out.
type CounterDevice struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"size:36;uniqueIndex:idx_device_token,priority:1" json:"tenantId"`
	Token     string    `gorm:"size:255;uniqueIndex:idx_device_token,priority:2" json:"token"`
	Name      string    `gorm:"size:120" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
