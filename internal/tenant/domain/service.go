package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "tenant"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Tenant, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]Tenant, error)
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[Tenant], error)
	Find(ctx context.Context, filter Filter) ([]Tenant, error)
	GetChildren(ctx context.Context, id snowflake.ID) ([]Tenant, error)
	Create(ctx context.Context, req Request) (*Tenant, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*Tenant, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
}

// Filter selects tenants by any combination of fields. Nil fields are
// ignored.
type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	Name             *string        `json:"name"`
	Type             *TenantType    `json:"type"`
	ParentID         *snowflake.ID  `json:"parentId"`
	ClientID         *snowflake.ID  `json:"clientId"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	var tenantType *string
	if f.Type != nil {
		v := string(*f.Type)
		tenantType = &v
	}
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.String("name", f.Name),
			query.String("tenant_type", tenantType),
			query.ID("parent_id", f.ParentID),
			query.ID("client_id", f.ClientID),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	Name     string         `json:"name"`
	Key      string         `json:"key"`
	Type     TenantType     `json:"type"`
	ParentID *snowflake.ID  `json:"parentId"`
	ClientID *snowflake.ID  `json:"clientId"`
	Start    *time.Time     `json:"start"`
	End      *time.Time     `json:"end"`
	Address  *string        `json:"address"`
	Phone    *string        `json:"phone"`
	Email    *string        `json:"email"`
	Website  *string        `json:"website"`
	Metadata map[string]any `json:"metadata"`
}

// SortColumns lists the columns a listing may be ordered by.
var SortColumns = map[string]bool{
	"id":          true,
	"name":        true,
	"tenant_key":  true,
	"tenant_type": true,
	"created_at":  true,
}
