package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "tenantRole"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*TenantRole, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]TenantRole, error)
	// GetAll searches on the granted role name.
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[TenantRole], error)
	Find(ctx context.Context, filter Filter) ([]TenantRole, error)
	Create(ctx context.Context, req Request) (*TenantRole, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*TenantRole, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
	Count(ctx context.Context) (int64, error)

	GetIDByTenantRole(ctx context.Context, tenantID, roleID snowflake.ID) (snowflake.ID, error)
	ExistsAssociation(ctx context.Context, tenantID, roleID snowflake.ID) (bool, error)
	GetRolesForUserTenant(ctx context.Context, userID int64, tenantID snowflake.ID) ([]roledomain.Role, error)
	// HasAnyRole reports whether the user holds at least one of the named
	// roles within the tenant.
	HasAnyRole(ctx context.Context, userID int64, roleNames []string, tenantID snowflake.ID) (bool, error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	TenantID         *snowflake.ID  `json:"tenantId"`
	RoleID           *snowflake.ID  `json:"roleId"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.ID("tenant_id", f.TenantID),
			query.ID("role_id", f.RoleID),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	TenantID snowflake.ID `json:"tenantId"`
	RoleID   snowflake.ID `json:"roleId"`
}

var SortColumns = map[string]bool{
	"id":         true,
	"tenant_id":  true,
	"role_id":    true,
	"created_at": true,
}
