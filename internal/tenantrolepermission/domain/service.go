package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "tenantRolePermission"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*TenantRolePermission, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]TenantRolePermission, error)
	// GetAll searches on the attached permission name.
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[TenantRolePermission], error)
	Find(ctx context.Context, filter Filter) ([]TenantRolePermission, error)
	Create(ctx context.Context, req Request) (*TenantRolePermission, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*TenantRolePermission, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)

	// Assign attaches the permission to the role granted within the tenant.
	Assign(ctx context.Context, tenantID, roleID, permissionID snowflake.ID) (*TenantRolePermission, error)
	Unassign(ctx context.Context, tenantID, roleID, permissionID snowflake.ID) error
	GetPermissionIDs(ctx context.Context, tenantID, roleID snowflake.ID) ([]snowflake.ID, error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	TenantRoleID     *snowflake.ID  `json:"tenantRoleId"`
	PermissionID     *snowflake.ID  `json:"permissionId"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.ID("tenant_role_id", f.TenantRoleID),
			query.ID("permission_id", f.PermissionID),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	TenantRoleID snowflake.ID `json:"tenantRoleId"`
	PermissionID snowflake.ID `json:"permissionId"`
}

var SortColumns = map[string]bool{
	"id":             true,
	"tenant_role_id": true,
	"permission_id":  true,
	"created_at":     true,
}
