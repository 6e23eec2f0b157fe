package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TenantType string

const (
	TenantTypeRoot   TenantType = "ROOT"
	TenantTypeClient TenantType = "CLIENT"
	TenantTypeSub    TenantType = "SUB"
)

func (t TenantType) Valid() bool {
	switch t {
	case TenantTypeRoot, TenantTypeClient, TenantTypeSub:
		return true
	}
	return false
}

// Tenant is a node of the organization tree. Name is unique among siblings,
// Key is unique overall.
type Tenant struct {
	ID       snowflake.ID  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name     string        `gorm:"type:varchar(255);not null;uniqueIndex:ux_tenants_parent_name,priority:2" json:"name"`
	Key      string        `gorm:"column:tenant_key;type:varchar(255);not null;uniqueIndex:ux_tenants_key" json:"key"`
	Type     TenantType    `gorm:"column:tenant_type;type:varchar(16);not null;index" json:"type"`
	ParentID *snowflake.ID `gorm:"column:parent_id;uniqueIndex:ux_tenants_parent_name,priority:1" json:"parentId,omitempty"`
	ClientID *snowflake.ID `gorm:"column:client_id;index" json:"clientId,omitempty"`

	Start *time.Time `gorm:"column:tenant_start" json:"start,omitempty"`
	End   *time.Time `gorm:"column:tenant_end" json:"end,omitempty"`

	Address  *string           `gorm:"type:text" json:"address,omitempty"`
	Phone    *string           `gorm:"type:varchar(64)" json:"phone,omitempty"`
	Email    *string           `gorm:"type:varchar(255)" json:"email,omitempty"`
	Website  *string           `gorm:"type:varchar(255)" json:"website,omitempty"`
	Metadata datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Tenant) TableName() string { return "tenants" }

// IsTerminated reports whether the validity window closed before now.
func (t Tenant) IsTerminated(now time.Time) bool {
	return t.End != nil && !t.End.After(now)
}
