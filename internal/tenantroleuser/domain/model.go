package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantRoleUser gives a user a role within a tenant. User ids come from the
// identity provider and are not checked here.
type TenantRoleUser struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantRoleID snowflake.ID `gorm:"column:tenant_role_id;not null;uniqueIndex:ux_tenant_role_users_pair,priority:1" json:"tenantRoleId"`
	UserID       int64        `gorm:"column:user_id;not null;uniqueIndex:ux_tenant_role_users_pair,priority:2;index" json:"userId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (TenantRoleUser) TableName() string { return "tenant_role_users" }
