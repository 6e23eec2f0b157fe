package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "action"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Action, error)
	GetByName(ctx context.Context, name string) (*Action, error)
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[Action], error)
	Find(ctx context.Context, filter Filter) ([]Action, error)
	Create(ctx context.Context, req Request) (*Action, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*Action, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	Name             *string        `json:"name"`
	Type             *string        `json:"type"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.String("name", f.Name),
			query.String("action_type", f.Type),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var SortColumns = map[string]bool{
	"id":          true,
	"name":        true,
	"action_type": true,
}
