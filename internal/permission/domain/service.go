package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "permission"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Permission, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]Permission, error)
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[Permission], error)
	Find(ctx context.Context, filter Filter) ([]Permission, error)
	Create(ctx context.Context, req Request) (*Permission, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*Permission, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)

	// GetIDByActionAndResource resolves the id of the permission pairing the
	// named resource and action without listing every permission.
	GetIDByActionAndResource(ctx context.Context, resourceName, actionName string) (snowflake.ID, error)
	GetByActionAndResourceNames(ctx context.Context, actionName, resourceName string) (*Permission, error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	Name             *string        `json:"name"`
	ActionID         *snowflake.ID  `json:"actionId"`
	ResourceID       *snowflake.ID  `json:"resourceId"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.String("name", f.Name),
			query.ID("action_id", f.ActionID),
			query.ID("resource_id", f.ResourceID),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	Name       string       `json:"name"`
	ActionID   snowflake.ID `json:"actionId"`
	ResourceID snowflake.ID `json:"resourceId"`
}

var SortColumns = map[string]bool{
	"id":          true,
	"name":        true,
	"action_id":   true,
	"resource_id": true,
}
