package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Permission grants one action on one resource class.
type Permission struct {
	ID         snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name       string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_permissions_name" json:"name"`
	ActionID   snowflake.ID `gorm:"column:action_id;not null;uniqueIndex:ux_permissions_action_resource,priority:1" json:"actionId"`
	ResourceID snowflake.ID `gorm:"column:resource_id;not null;uniqueIndex:ux_permissions_action_resource,priority:2;index" json:"resourceId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Permission) TableName() string { return "permissions" }
