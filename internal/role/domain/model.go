package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role struct {
	ID              snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name            string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_roles_name" json:"name"`
	Description     *string      `gorm:"type:text" json:"description,omitempty"`
	TerminationDate *time.Time   `gorm:"column:termination_date" json:"terminationDate,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Role) TableName() string { return "roles" }

// IsTerminated reports whether the termination date is not after now. A
// terminated role keeps its grants but cannot receive new ones.
func (r Role) IsTerminated(now time.Time) bool {
	return r.TerminationDate != nil && !r.TerminationDate.After(now)
}
