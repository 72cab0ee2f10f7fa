package models

import "time"

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// Built-in role names used by page-access gating. Tenant role lists may
// define more; these are the ones the platform itself understands.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleTenantStaff = "tenant_staff"
	RoleCustomer    = "customer"
)

// User is a login principal. A super-admin has no TenantID; every other
// user belongs to exactly one tenant. Role refers to a Role inside the
// tenant's RoleList by name.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID     *string   `gorm:"size:36;index" json:"tenantId,omitempty"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"size:50" json:"role"`
	Status       string    `gorm:"size:20;default:active" json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsSuperAdmin reports whether the user is the platform operator.
func (u *User) IsSuperAdmin() bool { return u.TenantID == nil }
