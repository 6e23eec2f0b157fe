package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ActiveTenant caches which of a user's tenants is the current operating
// context. At most one record per user has IsActive set.
type ActiveTenant struct {
	ID         snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID     int64        `gorm:"column:user_id;not null;uniqueIndex:ux_active_tenants_user_tenant,priority:1" json:"userId"`
	TenantID   snowflake.ID `gorm:"column:tenant_id;not null;uniqueIndex:ux_active_tenants_user_tenant,priority:2;index" json:"tenantId"`
	TenantName string       `gorm:"column:tenant_name;type:varchar(255);not null" json:"tenantName"`
	IsActive   bool         `gorm:"column:is_active;not null;default:false" json:"isActive"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (ActiveTenant) TableName() string { return "active_tenants" }

// Membership is a tenant reached through a tenant role user record.
type Membership struct {
	TenantID   snowflake.ID
	TenantName string
}
