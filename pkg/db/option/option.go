// Package option holds reusable gorm query modifiers.
package option

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// SortBy orders by every listed column in the same direction.
type SortBy struct {
	Columns   []string
	Ascending bool
}

// WithQuerySortBy keeps only the columns present in allowed and falls back to
// id when nothing usable remains.
func WithQuerySortBy(columns []string, ascending bool, allowed map[string]bool) SortBy {
	out := make([]string, 0, len(columns))
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" || !allowed[column] {
			continue
		}
		out = append(out, column)
	}
	if len(out) == 0 {
		return SortBy{Columns: []string{"id"}, Ascending: true}
	}
	return SortBy{Columns: out, Ascending: ascending}
}

// WithSortBy applies the sort and breaks ties by id so that consecutive pages
// never repeat or skip a row.
func WithSortBy(sort SortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		hasID := false
		for _, column := range sort.Columns {
			if column == "id" {
				hasID = true
			}
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Name: column},
				Desc:   !sort.Ascending,
			})
		}
		if !hasID {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: !sort.Ascending})
		}
		return db
	})
}

// MaxPageSize bounds a single page window.
const MaxPageSize = 1000

// PageOffset returns the row offset of a 1-indexed page, or false when the
// window is out of range or the offset would not fit in an int32.
func PageOffset(pageNo, pageSize int) (int, bool) {
	if pageNo < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return 0, false
	}
	if pageNo-1 > math.MaxInt32/pageSize {
		return 0, false
	}
	return (pageNo - 1) * pageSize, true
}

// WithPage applies a 1-indexed page window. An out of range window selects
// no rows.
func WithPage(pageNo, pageSize int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		offset, ok := PageOffset(pageNo, pageSize)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Offset(offset).Limit(pageSize)
	})
}

func WithWhere(expr clause.Expression) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if expr == nil {
			return db
		}
		return db.Where(expr)
	})
}
