package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

const Entity = "role"

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	GetByIDs(ctx context.Context, ids []snowflake.ID) ([]Role, error)
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[Role], error)
	Find(ctx context.Context, filter Filter) ([]Role, error)
	Create(ctx context.Context, req Request) (*Role, error)
	Update(ctx context.Context, id snowflake.ID, req Request) (*Role, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
	// Assignable returns the role when it exists and is not terminated.
	Assignable(ctx context.Context, id snowflake.ID) (*Role, error)
}

type Filter struct {
	IDs              []snowflake.ID `json:"ids"`
	Name             *string        `json:"name"`
	Description      *string        `json:"description"`
	Exact            bool           `json:"exact"`
	LogicConjunction bool           `json:"logicConjunction"`
}

func (f Filter) Predicate() query.Filter {
	return query.Filter{
		Fields: []query.Field{
			query.IDs("id", f.IDs),
			query.String("name", f.Name),
			query.String("description", f.Description),
		},
		Exact:            f.Exact,
		LogicConjunction: f.LogicConjunction,
	}
}

type Request struct {
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	TerminationDate *time.Time `json:"terminationDate"`
}

var SortColumns = map[string]bool{
	"id":               true,
	"name":             true,
	"termination_date": true,
	"created_at":       true,
}
