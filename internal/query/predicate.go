// Package query builds filter predicates and paginated queries over one
// entity table.
package query

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm/clause"
)

var (
	alwaysTrue  = clause.Expr{SQL: "1 = 1"}
	alwaysFalse = clause.Expr{SQL: "1 = 0"}
)

// Field is one optional filter criterion. A nil Value excludes the field.
type Field struct {
	Column string
	Value  any
}

// Filter combines fields with AND (seeded with TRUE) when LogicConjunction is
// set and with OR (seeded with FALSE) otherwise, so an OR filter without any
// informed field matches nothing.
type Filter struct {
	Fields           []Field
	Exact            bool
	LogicConjunction bool
}

func String(column string, value *string) Field {
	if value == nil {
		return Field{Column: column}
	}
	return Field{Column: column, Value: *value}
}

func ID(column string, value *snowflake.ID) Field {
	if value == nil {
		return Field{Column: column}
	}
	return Field{Column: column, Value: value.Int64()}
}

func Bool(column string, value *bool) Field {
	if value == nil {
		return Field{Column: column}
	}
	return Field{Column: column, Value: *value}
}

// IDs matches the column against a set; an empty set excludes the field.
func IDs(column string, values []snowflake.ID) Field {
	if len(values) == 0 {
		return Field{Column: column}
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		ids = append(ids, v.Int64())
	}
	return Field{Column: column, Value: ids}
}

// Build turns the filter into a single boolean expression.
func Build(f Filter) clause.Expression {
	exprs := make([]clause.Expression, 0, len(f.Fields)+1)
	if f.LogicConjunction {
		exprs = append(exprs, alwaysTrue)
	} else {
		exprs = append(exprs, alwaysFalse)
	}

	for _, field := range f.Fields {
		expr := fieldExpr(field, f.Exact)
		if expr == nil {
			continue
		}
		exprs = append(exprs, expr)
	}

	// a lone OrConditions is joined with OR by gorm when chained after
	// another Where, so the bare seed is returned instead
	if len(exprs) == 1 {
		return exprs[0]
	}
	if f.LogicConjunction {
		return clause.And(exprs...)
	}
	return clause.Or(exprs...)
}

func fieldExpr(field Field, exact bool) clause.Expression {
	if field.Value == nil || field.Column == "" {
		return nil
	}
	column := clause.Column{Name: field.Column}
	switch v := field.Value.(type) {
	case string:
		if exact {
			return clause.Eq{Column: column, Value: v}
		}
		return clause.Like{Column: column, Value: "%" + v + "%"}
	case []int64:
		values := make([]any, 0, len(v))
		for _, id := range v {
			values = append(values, id)
		}
		return clause.IN{Column: column, Values: values}
	default:
		return clause.Eq{Column: column, Value: v}
	}
}

// Search matches column against a raw LIKE pattern supplied by the caller
// (e.g. "T%"). An empty pattern matches everything.
func Search(column string, pattern string) clause.Expression {
	if strings.TrimSpace(pattern) == "" {
		return alwaysTrue
	}
	return clause.Like{Column: clause.Column{Name: column}, Value: pattern}
}

// Describe renders the filter for debug logging.
func (f Filter) Describe() string {
	parts := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		if field.Value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", field.Column, field.Value))
	}
	op := "or"
	if f.LogicConjunction {
		op = "and"
	}
	return fmt.Sprintf("%s(%s) exact=%t", op, strings.Join(parts, ","), f.Exact)
}

// Int64s converts snowflake ids to their column values.
func Int64s(ids []snowflake.ID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Int64())
	}
	return out
}

// SearchIn matches rows whose column references a row of table whose
// nameColumn is LIKE pattern. Used by junction tables that carry no name of
// their own.
func SearchIn(column, table, nameColumn, pattern string) clause.Expression {
	if strings.TrimSpace(pattern) == "" {
		return alwaysTrue
	}
	return clause.Expr{
		SQL:  fmt.Sprintf("%s IN (SELECT id FROM %s WHERE %s LIKE ?)", column, table, nameColumn),
		Vars: []any{pattern},
	}
}

// All matches every row.
func All() clause.Expression {
	return alwaysTrue
}
