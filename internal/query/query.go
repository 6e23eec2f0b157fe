package query

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/pkg/db/option"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page describes one window of an ordered listing.
type Page struct {
	PageNo    int      `form:"page" json:"pageNo"`
	PageSize  int      `form:"size" json:"pageSize"`
	SortBy    []string `form:"sort" json:"sortBy"`
	Ascending bool     `form:"asc" json:"asc"`
}

// ListRequest is a page plus a LIKE pattern applied to the entity's search
// column.
type ListRequest struct {
	Search string `form:"search" json:"search"`
	Page
}

const DefaultPageSize = 10

// Paginate counts the rows matching where and loads the requested window.
// Sort columns outside allowed are ignored; without any the natural id order
// applies.
func Paginate[T any](ctx context.Context, db *gorm.DB, where clause.Expression, page Page, allowed map[string]bool) (pagination.Page[T], error) {
	var model T
	entity := tableName(db, &model)

	if page.PageNo < 1 {
		return pagination.Page[T]{}, apperror.InvalidArgument(entity, "page number must be >= 1")
	}
	if page.PageSize < 1 || page.PageSize > option.MaxPageSize {
		return pagination.Page[T]{}, apperror.InvalidArgument(entity, "page size must be between 1 and %d", option.MaxPageSize)
	}
	if _, ok := option.PageOffset(page.PageNo, page.PageSize); !ok {
		return pagination.Page[T]{}, apperror.InvalidArgument(entity, "page number %d is out of range", page.PageNo)
	}

	var total int64
	if err := db.WithContext(ctx).Model(&model).Where(where).Count(&total).Error; err != nil {
		return pagination.Page[T]{}, apperror.Classify(entity, err)
	}

	var rows []T
	stmt := db.WithContext(ctx).Model(&model).Where(where)
	stmt = option.WithSortBy(option.WithQuerySortBy(page.SortBy, page.Ascending, allowed)).Apply(stmt)
	stmt = option.WithPage(page.PageNo, page.PageSize).Apply(stmt)
	if err := stmt.Find(&rows).Error; err != nil {
		return pagination.Page[T]{}, apperror.Classify(entity, err)
	}

	return pagination.New(rows, page.PageNo, page.PageSize, total), nil
}

// List loads every row matching where in id order.
func List[T any](ctx context.Context, db *gorm.DB, where clause.Expression) ([]T, error) {
	var model T
	var rows []T
	err := db.WithContext(ctx).Model(&model).Where(where).Order("id").Find(&rows).Error
	if err != nil {
		return nil, apperror.Classify(tableName(db, &model), err)
	}
	return rows, nil
}

func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil || stmt.Schema == nil {
		return "record"
	}
	return stmt.Schema.Table
}
