package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "tenantRoleUser"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*TenantRoleUser, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]TenantRoleUser, error)
	// GetAll searches on the name of the granted role.
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[TenantRoleUser], error)
	Find(ctx context.Context, filter Filter) ([]TenantRoleUser, error)
	Create(ctx context.Context, req Request) (*TenantRoleUser, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*TenantRoleUser, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)

	Assign(ctx context.Context, tenantID, roleID snowflake.ID, userID int64) (*TenantRoleUser, error)
	// Unassign removes the user from each listed role of the tenant.
	Unassign(ctx context.Context, tenantID snowflake.ID, roleIDs []snowflake.ID, userID int64) error
	GetTenantIDs(ctx context.Context, userID int64, roleID *snowflake.ID) ([]snowflake.ID, error)
	GetUserIDs(ctx context.Context, tenantID snowflake.ID, roleID *snowflake.ID, page query.Page) (pagination.Page[int64], error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	TenantRoleID     *snowflake.ID  `json:"tenantRoleId"`
	UserID           *int64         `json:"userId"`
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
			query.ID("tenant_role_id", f.TenantRoleID),
			user,
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	TenantRoleID snowflake.ID `json:"tenantRoleId"`
	UserID       int64        `json:"userId"`
}

var SortColumns = map[string]bool{
	"id":             true,
	"tenant_role_id": true,
	"user_id":        true,
	"created_at":     true,
}
