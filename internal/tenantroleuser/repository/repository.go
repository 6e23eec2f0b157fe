package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	activetenantdomain "github.com/smallbiznis/tenancy/internal/activetenant/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	repository.Store[domain.TenantRoleUser]
	tenantRoles   repository.Store[tenantroledomain.TenantRole]
	activeTenants repository.Store[activetenantdomain.ActiveTenant]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindTenantRole(ctx context.Context, db *gorm.DB, id int64) (*tenantroledomain.TenantRole, error) {
	return r.tenantRoles.FindByID(ctx, db, id)
}

func (r *repo) TenantRoleID(ctx context.Context, db *gorm.DB, tenantID, roleID int64) (int64, error) {
	tr, err := r.tenantRoles.FindOne(ctx, db, clause.And(
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID},
		clause.Eq{Column: clause.Column{Name: "role_id"}, Value: roleID},
	))
	if err != nil || tr == nil {
		return 0, err
	}
	return tr.ID.Int64(), nil
}

func (r *repo) EnsureActiveTenant(ctx context.Context, db *gorm.DB, id, userID, tenantID int64, now time.Time) error {
	where := userTenant(userID, tenantID)
	count, err := r.activeTenants.Count(ctx, db, where)
	if err != nil || count > 0 {
		return err
	}
	var name string
	if err := db.WithContext(ctx).Raw(`SELECT name FROM tenants WHERE id = ?`, tenantID).Scan(&name).Error; err != nil {
		return err
	}
	return r.activeTenants.Create(ctx, db, &activetenantdomain.ActiveTenant{
		ID:         snowflake.ID(id),
		UserID:     userID,
		TenantID:   snowflake.ID(tenantID),
		TenantName: name,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (r *repo) ReleaseActiveTenant(ctx context.Context, db *gorm.DB, userID, tenantID int64) error {
	var remaining int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_role_users tru
		JOIN tenant_roles tr ON tr.id = tru.tenant_role_id
		WHERE tru.user_id = ? AND tr.tenant_id = ?`,
		userID, tenantID,
	).Scan(&remaining).Error
	if err != nil || remaining > 0 {
		return err
	}
	_, err = r.activeTenants.DeleteWhere(ctx, db, userTenant(userID, tenantID))
	return err
}

func (r *repo) TenantIDs(ctx context.Context, db *gorm.DB, userID int64, roleID *int64) ([]int64, error) {
	stmt := db.WithContext(ctx).Table("tenant_roles tr").
		Distinct("tr.tenant_id").
		Joins("JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id").
		Where("tru.user_id = ?", userID)
	if roleID != nil {
		stmt = stmt.Where("tr.role_id = ?", *roleID)
	}
	var ids []int64
	err := stmt.Order("tr.tenant_id").Pluck("tr.tenant_id", &ids).Error
	return ids, err
}

func (r *repo) UserIDs(ctx context.Context, db *gorm.DB, tenantID int64, roleID *int64, offset, limit int) ([]int64, int64, error) {
	base := func() *gorm.DB {
		stmt := db.WithContext(ctx).Table("tenant_role_users tru").
			Joins("JOIN tenant_roles tr ON tr.id = tru.tenant_role_id").
			Where("tr.tenant_id = ?", tenantID)
		if roleID != nil {
			stmt = stmt.Where("tr.role_id = ?", *roleID)
		}
		return stmt
	}

	var total int64
	if err := base().Distinct("tru.user_id").Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ids []int64
	err := base().
		Distinct("tru.user_id").
		Order("tru.user_id").
		Offset(offset).
		Limit(limit).
		Pluck("tru.user_id", &ids).Error
	return ids, total, err
}

func userTenant(userID, tenantID int64) clause.Expression {
	return clause.And(
		clause.Eq{Column: clause.Column{Name: "user_id"}, Value: userID},
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID},
	)
}
