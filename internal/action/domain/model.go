package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ActionType is a closed set; new kinds are added as constants here.
type ActionType string

const (
	ActionTypeRead      ActionType = "READ"
	ActionTypeWrite     ActionType = "WRITE"
	ActionTypeExecution ActionType = "EXECUTION"
	ActionTypeCreate    ActionType = "CREATE"
	ActionTypeUpdate    ActionType = "UPDATE"
	ActionTypeDelete    ActionType = "DELETE"
	ActionTypeList      ActionType = "LIST"
)

// ActionTypes lists every known type in declaration order.
var ActionTypes = []ActionType{
	ActionTypeRead,
	ActionTypeWrite,
	ActionTypeExecution,
	ActionTypeCreate,
	ActionTypeUpdate,
	ActionTypeDelete,
	ActionTypeList,
}

func ParseActionType(raw string) (ActionType, bool) {
	value := ActionType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, t := range ActionTypes {
		if t == value {
			return t, true
		}
	}
	return "", false
}

type Action struct {
	ID   snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_actions_name" json:"name"`
	Type ActionType   `gorm:"column:action_type;type:varchar(16);not null" json:"type"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Action) TableName() string { return "actions" }
