package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is a company using the ERP. Tenants are not themselves tenant-scoped.
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Slug      string         `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a primary key when the caller did not
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Permission names checked by the API
const (
	PermissionAll             = "*"
	PermissionUsersManage     = "users:manage"
	PermissionProductionRead  = "production:read"
	PermissionProductionWrite = "production:write"
	PermissionInventoryRead   = "inventory:read"
	PermissionInventoryWrite  = "inventory:write"
	PermissionDispatchRead    = "dispatch:read"
	PermissionDispatchWrite   = "dispatch:write"
	PermissionHRRead          = "hr:read"
	PermissionHRWrite         = "hr:write"
	PermissionCRMRead         = "crm:read"
	PermissionCRMWrite        = "crm:write"
	PermissionReportsRead     = "reports:read"
	PermissionReportsManage   = "reports:manage"
)

// KnownPermissions lists every permission a role may be granted
var KnownPermissions = []string{
	PermissionAll,
	PermissionUsersManage,
	PermissionProductionRead,
	PermissionProductionWrite,
	PermissionInventoryRead,
	PermissionInventoryWrite,
	PermissionDispatchRead,
	PermissionDispatchWrite,
	PermissionHRRead,
	PermissionHRWrite,
	PermissionCRMRead,
	PermissionCRMWrite,
	PermissionReportsRead,
	PermissionReportsManage,
}

// IsKnownPermission reports whether p is a recognised permission
func IsKnownPermission(p string) bool {
	for _, k := range KnownPermissions {
		if k == p {
			return true
		}
	}
	return false
}

// HasPermission reports whether the granted set satisfies required.
// A write permission implies the matching read permission.
func HasPermission(granted []string, required string) bool {
	for _, g := range granted {
		if g == PermissionAll || g == required {
			return true
		}
		if len(required) > 5 && required[len(required)-5:] == ":read" {
			if g == required[:len(required)-5]+":write" {
				return true
			}
		}
	}
	return false
}

// Role is a named set of permissions within a tenant
type Role struct {
	Base
	Name        string   `gorm:"size:100;not null" json:"name"`
	Description string   `gorm:"size:500" json:"description"`
	Permissions []string `gorm:"serializer:json;type:jsonb" json:"permissions"`
}

// User is an account that can sign in to a tenant
type User struct {
	Base
	Username               string     `gorm:"size:100;not null" json:"username"`
	Email                  string     `gorm:"size:200" json:"email"`
	FullName               string     `gorm:"size:200" json:"full_name"`
	PasswordHash           string     `gorm:"size:200;not null" json:"-"`
	RoleID                 uuid.UUID  `gorm:"type:uuid;not null;index" json:"role_id"`
	Role                   *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Active                 bool       `gorm:"not null" json:"active"`
	TwoFactorEnabled       bool       `gorm:"not null;default:false" json:"two_factor_enabled"`
	TwoFactorSecret        string     `gorm:"size:100" json:"-"`
	TwoFactorPendingSecret string     `gorm:"size:100" json:"-"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
}

// Permissions returns the permissions granted through the user's role
func (u *User) Permissions() []string {
	if u.Role == nil {
		return nil
	}
	return u.Role.Permissions
}
