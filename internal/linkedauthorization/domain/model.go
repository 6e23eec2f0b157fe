package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// LinkedAuthorization is the flat form of a grant: the user holds the role
// within the tenant and the role carries the permission.
type LinkedAuthorization struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID     snowflake.ID `gorm:"column:tenant_id;not null;uniqueIndex:ux_linked_authorizations_grant,priority:1" json:"tenantId"`
	RoleID       snowflake.ID `gorm:"column:role_id;not null;uniqueIndex:ux_linked_authorizations_grant,priority:2;index" json:"roleId"`
	PermissionID snowflake.ID `gorm:"column:permission_id;not null;uniqueIndex:ux_linked_authorizations_grant,priority:3;index" json:"permissionId"`
	UserID       int64        `gorm:"column:user_id;not null;uniqueIndex:ux_linked_authorizations_grant,priority:4;index" json:"userId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (LinkedAuthorization) TableName() string { return "linked_authorizations" }
