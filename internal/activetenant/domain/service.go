package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "activeTenant"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*ActiveTenant, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]ActiveTenant, error)
	// GetAll searches on the tenant name.
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[ActiveTenant], error)
	Find(ctx context.Context, filter Filter) ([]ActiveTenant, error)
	Create(ctx context.Context, req Request) (*ActiveTenant, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*ActiveTenant, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)

	ExistsFor(ctx context.Context, userID int64, tenantID snowflake.ID) (bool, error)
	DeleteByTenantAndUser(ctx context.Context, tenantID snowflake.ID, userID int64) error
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	UserID           *int64         `json:"userId"`
	TenantID         *snowflake.ID  `json:"tenantId"`
	TenantName       *string        `json:"tenantName"`
	IsActive         *bool          `json:"isActive"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	user := query.Field{Column: "user_id"}
	if f.UserID != nil {
		user.Value = *f.UserID
	}
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			user,
			query.ID("tenant_id", f.TenantID),
			query.String("tenant_name", f.TenantName),
			query.Bool("is_active", f.IsActive),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

// Request leaves TenantName empty to copy the tenant's current name.
type Request struct {
	UserID     int64        `json:"userId"`
	TenantID   snowflake.ID `json:"tenantId"`
	TenantName string       `json:"tenantName"`
	IsActive   bool         `json:"isActive"`
}

var SortColumns = map[string]bool{
	"id":          true,
	"user_id":     true,
	"tenant_id":   true,
	"tenant_name": true,
	"is_active":   true,
}
