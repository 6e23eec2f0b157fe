package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization/domain"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Unique *uniqueness.Validator
	Clock  clock.Clock `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	unique *uniqueness.Validator
	clock  clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("linkedauthorization.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		unique: p.Unique,
		clock:  clock.Or(p.Clock),
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.LinkedAuthorization, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.LinkedAuthorization, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.LinkedAuthorization], error) {
	where := query.SearchIn("role_id", "roles", "name", req.Search)
	return query.Paginate[domain.LinkedAuthorization](ctx, s.db, where, req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.LinkedAuthorization, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) IsRoleGranted(ctx context.Context, userID int64, roleName string, tenantID snowflake.ID) (bool, error) {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return false, apperror.MissingField(domain.Entity, "roleName")
	}
	if userID == 0 {
		return false, apperror.MissingField(domain.Entity, "userId")
	}
	if tenantID == 0 {
		return false, apperror.MissingField(domain.Entity, "tenantId")
	}
	count, err := s.repo.CountRoleGrants(ctx, s.db, userID, tenantID.Int64(), roleName)
	if err != nil {
		return false, apperror.Classify(domain.Entity, err)
	}
	return count > 0, nil
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.LinkedAuthorization, error) {
	record := &domain.LinkedAuthorization{ID: s.genID.Generate(), CreatedAt: s.clock.Now()}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, record, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, record)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.LinkedAuthorization, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.LinkedAuthorization{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.LinkedAuthorization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		if err := s.validate(ctx, tx, candidate, id.Int64()); err != nil {
			return err
		}
		existing.TenantID = candidate.TenantID
		existing.RoleID = candidate.RoleID
		existing.PermissionID = candidate.PermissionID
		existing.UserID = candidate.UserID
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(candidate)...)
	}
	return record, nil
}

// Delete is a no-op for a missing record.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.DeleteMany(ctx, []snowflake.ID{id})
}

func (s *Service) DeleteMany(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return apperror.MissingField(domain.Entity, "ids")
	}
	for _, id := range ids {
		if id == 0 {
			return apperror.MissingField(domain.Entity, "id")
		}
	}
	_, err := s.repo.Delete(ctx, s.db, query.Int64s(ids)...)
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) DeleteByTenantAndUser(ctx context.Context, tenantID snowflake.ID, userID int64) error {
	if tenantID == 0 {
		return apperror.MissingField(domain.Entity, "tenantId")
	}
	if userID == 0 {
		return apperror.MissingField(domain.Entity, "userId")
	}
	removed, err := s.repo.DeleteWhere(ctx, s.db, clause.And(
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID.Int64()},
		clause.Eq{Column: clause.Column{Name: "user_id"}, Value: userID},
	))
	if err != nil {
		return apperror.Classify(domain.Entity, err)
	}
	s.log.Debug("linked authorizations removed",
		zap.Int64("tenant_id", tenantID.Int64()),
		zap.Int64("user_id", userID),
		zap.Int64("count", removed),
	)
	return nil
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, la *domain.LinkedAuthorization, selfID int64) error {
	checks := []struct {
		entity string
		id     snowflake.ID
		exists func(context.Context, *gorm.DB, int64) (bool, error)
	}{
		{"tenant", la.TenantID, s.repo.TenantExists},
		{"role", la.RoleID, s.repo.RoleExists},
		{"permission", la.PermissionID, s.repo.PermissionExists},
	}
	for _, c := range checks {
		ok, err := c.exists(ctx, tx, c.id.Int64())
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound(c.entity, "id %d", c.id.Int64())
		}
	}
	return s.unique.Check(ctx, tx, &domain.LinkedAuthorization{}, domain.Entity, selfID, uniqueKeys(la)...)
}

func apply(la *domain.LinkedAuthorization, req domain.Request) error {
	switch {
	case req.TenantID == 0:
		return apperror.MissingField(domain.Entity, "tenantId")
	case req.RoleID == 0:
		return apperror.MissingField(domain.Entity, "roleId")
	case req.PermissionID == 0:
		return apperror.MissingField(domain.Entity, "permissionId")
	case req.UserID == 0:
		return apperror.MissingField(domain.Entity, "userId")
	}
	la.TenantID = req.TenantID
	la.RoleID = req.RoleID
	la.PermissionID = req.PermissionID
	la.UserID = req.UserID
	return nil
}

func uniqueKeys(la *domain.LinkedAuthorization) []uniqueness.Key {
	return []uniqueness.Key{
		{
			{Field: "tenantId", Column: "tenant_id", Value: la.TenantID.Int64()},
			{Field: "roleId", Column: "role_id", Value: la.RoleID.Int64()},
			{Field: "permissionId", Column: "permission_id", Value: la.PermissionID.Int64()},
			{Field: "userId", Column: "user_id", Value: la.UserID},
		},
	}
}
