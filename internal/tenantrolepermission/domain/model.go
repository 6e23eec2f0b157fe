package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantRolePermission attaches a permission to a role granted within a
// tenant.
type TenantRolePermission struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantRoleID snowflake.ID `gorm:"column:tenant_role_id;not null;uniqueIndex:ux_tenant_role_permissions_pair,priority:1" json:"tenantRoleId"`
	PermissionID snowflake.ID `gorm:"column:permission_id;not null;uniqueIndex:ux_tenant_role_permissions_pair,priority:2;index" json:"permissionId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (TenantRolePermission) TableName() string { return "tenant_role_permissions" }
