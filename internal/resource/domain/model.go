package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Resource names a protected object class such as "tenant" or "user".
type Resource struct {
	ID   snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_resources_name" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Resource) TableName() string { return "resources" }
