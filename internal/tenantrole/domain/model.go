package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantRole makes a role usable within a tenant. A role is granted to a
// tenant at most once.
type TenantRole struct {
	ID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID snowflake.ID `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_roles_tenant_role,priority:1" json:"tenantId"`
	RoleID   snowflake.ID `gorm:"column:role_id;not null;uniqueIndex:ux_tenant_roles_tenant_role,priority:2;index" json:"roleId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (TenantRole) TableName() string { return "tenant_roles" }
