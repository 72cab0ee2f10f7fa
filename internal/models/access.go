package models

import (
	"time"

	"gorm.io/datatypes"
)

// Page categories accepted by AddPage. Anything else is rejected at the
// boundary; an empty category defaults to "admin".
var PageCategories = []string{
	"dashboard", "products", "orders", "customers", "reports",
	"settings", "admin", "qr", "users", "stock",
}

// Permission is one page grant inside a role. Route is the UI route the
// grant unlocks, with ":tenantId" substituted at evaluation time.
type Permission struct {
	Page      string `json:"page"`
	HasAccess bool   `json:"hasAccess"`
	Route     string `json:"route"`
}

// Role is a named set of page permissions. Within one role each page
// appears at most once.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// RoleList is the per-tenant role aggregate: one row per tenant, roles
// embedded. Mutations go through operations on the aggregate, never on
// individual roles.
type RoleList struct {
	ID        string                      `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string                      `gorm:"size:36;uniqueIndex" json:"tenantId"`
	Roles     datatypes.JSONType[[]Role]  `json:"roles"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// PageAccess describes one named page and the roles that may enter it.
type PageAccess struct {
	ID                   string   `json:"id"`
	Page                 string   `json:"page"`
	PageName             string   `json:"pageName"`
	Route                string   `json:"route"`
	Category             string   `json:"category"`
	RequiredRoles        []string `json:"requiredRoles"`
	RequiredPermissions  []string `json:"requiredPermissions"`
	ShowInMenu           bool     `json:"showInMenu"`
	ShowInSidebar        bool     `json:"showInSidebar"`
	MenuOrder            int      `json:"menuOrder"`
	IsActive             bool     `json:"isActive"`
	IsBeta               bool     `json:"isBeta"`
	RequiresSubscription bool     `json:"requiresSubscription"`
	Tags                 []string `json:"tags"`
}

// PageAccessList is the per-tenant page-access aggregate. Page is
// unique within the list; uniqueness across tenants is not required.
type PageAccessList struct {
	ID        string                           `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string                           `gorm:"size:36;uniqueIndex" json:"tenantId"`
	Pages     datatypes.JSONType[[]PageAccess] `json:"pages"`
	UpdatedAt time.Time                        `json:"updatedAt"`
}
