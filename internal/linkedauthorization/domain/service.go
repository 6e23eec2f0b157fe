package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "linkedAuthorization"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*LinkedAuthorization, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]LinkedAuthorization, error)
	// GetAll searches on the role name.
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[LinkedAuthorization], error)
	Find(ctx context.Context, filter Filter) ([]LinkedAuthorization, error)
	Create(ctx context.Context, req Request) (*LinkedAuthorization, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*LinkedAuthorization, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)

	IsRoleGranted(ctx context.Context, userID int64, roleName string, tenantID snowflake.ID) (bool, error)
	DeleteByTenantAndUser(ctx context.Context, tenantID snowflake.ID, userID int64) error
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	TenantID         *snowflake.ID  `json:"tenantId"`
	RoleID           *snowflake.ID  `json:"roleId"`
	PermissionID     *snowflake.ID  `json:"permissionId"`
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
			query.ID("tenant_id", f.TenantID),
			query.ID("role_id", f.RoleID),
			query.ID("permission_id", f.PermissionID),
			user,
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	TenantID     snowflake.ID `json:"tenantId"`
	RoleID       snowflake.ID `json:"roleId"`
	PermissionID snowflake.ID `json:"permissionId"`
	UserID       int64        `json:"userId"`
}

var SortColumns = map[string]bool{
	"id":            true,
	"tenant_id":     true,
	"role_id":       true,
	"permission_id": true,
	"user_id":       true,
}
