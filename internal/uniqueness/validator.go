// Package uniqueness rejects records whose composite key is already taken by a
// different record of the same kind.
package uniqueness

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	dbpkg "github.com/smallbiznis/tenancy/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column binds a diagnostic field name to its column and candidate value. A
// nil value matches NULL.
type Column struct {
	Field  string
	Column string
	Value  any
}

// Key is one composite key; all columns must match for a collision.
type Key []Column

func (k Key) Fields() []string {
	out := make([]string, 0, len(k))
	for _, c := range k {
		out = append(out, c.Field)
	}
	return out
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Validator struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) *Validator {
	return &Validator{log: p.Log.Named("uniqueness"), metrics: p.Metrics}
}

// Check runs every key against the table of model. id is the candidate's own
// id, zero on create; the candidate never collides with itself. Keys are
// checked in order and the first violated one is reported.
func (v *Validator) Check(ctx context.Context, tx *gorm.DB, model any, entity string, id int64, keys ...Key) error {
	for _, key := range keys {
		if len(key) == 0 {
			continue
		}
		exprs := make([]clause.Expression, 0, len(key)+1)
		for _, c := range key {
			exprs = append(exprs, clause.Eq{Column: clause.Column{Name: c.Column}, Value: c.Value})
		}
		if id != 0 {
			exprs = append(exprs, clause.Neq{Column: clause.Column{Name: "id"}, Value: id})
		}

		var count int64
		if err := tx.WithContext(ctx).Model(model).Where(clause.And(exprs...)).Count(&count).Error; err != nil {
			return apperror.Classify(entity, err)
		}
		if count > 0 {
			v.log.Debug("composite key collision",
				zap.String("entity", entity),
				zap.Strings("fields", key.Fields()),
				zap.Int64("id", id),
			)
			v.metrics.RecordUniquenessRejection(ctx, entity)
			return apperror.Uniqueness(entity, key.Fields()...)
		}
	}
	return nil
}

// Translate maps a unique-index violation raised by the store, which can only
// happen when a concurrent writer won the race after Check, to the same error
// Check would have produced. A foreign-key violation means a referenced row
// was deleted in between.
func Translate(entity string, err error, keys ...Key) error {
	if err == nil {
		return nil
	}
	switch dbpkg.ClassifyViolation(err) {
	case dbpkg.ViolationUnique:
		fields := make([]string, 0)
		for _, key := range keys {
			fields = append(fields, key.Fields()...)
		}
		return apperror.Uniqueness(entity, fields...)
	case dbpkg.ViolationForeignKey:
		return apperror.ReferentialIntegrity(entity, "referenced record does not exist")
	}
	return apperror.Classify(entity, err)
}
