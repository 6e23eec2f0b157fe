package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	"github.com/smallbiznis/tenancy/internal/clock"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	"github.com/smallbiznis/tenancy/internal/query"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Unique    *uniqueness.Validator
	Clock     clock.Clock     `optional:"true"`
	Decisions *decision.Cache `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	unique    *uniqueness.Validator
	clock     clock.Clock
	decisions *decision.Cache
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("tenantrolepermission.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		unique:    p.Unique,
		clock:     clock.Or(p.Clock),
		decisions: p.Decisions,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.TenantRolePermission, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.TenantRolePermission, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.TenantRolePermission], error) {
	where := query.SearchIn("permission_id", "permissions", "name", req.Search)
	return query.Paginate[domain.TenantRolePermission](ctx, s.db, where, req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.TenantRolePermission, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.TenantRolePermission, error) {
	record := &domain.TenantRolePermission{ID: s.genID.Generate(), CreatedAt: s.clock.Now()}
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
	s.decisions.Purge()
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.TenantRolePermission, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.TenantRolePermission{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.TenantRolePermission
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
		existing.TenantRoleID = candidate.TenantRoleID
		existing.PermissionID = candidate.PermissionID
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(candidate)...)
	}
	s.decisions.Purge()
	return record, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.DeleteMany(ctx, []snowflake.ID{id})
}

func (s *Service) DeleteMany(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return apperror.MissingField(domain.Entity, "ids")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if id == 0 {
				return apperror.MissingField(domain.Entity, "id")
			}
			ok, err := s.repo.Exists(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NotFound(domain.Entity, "id %d", id.Int64())
			}
		}
		_, err := s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) Assign(ctx context.Context, tenantID, roleID, permissionID snowflake.ID) (*domain.TenantRolePermission, error) {
	tenantRoleID, err := s.tenantRoleID(ctx, s.db, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, domain.Request{TenantRoleID: tenantRoleID, PermissionID: permissionID})
}

func (s *Service) Unassign(ctx context.Context, tenantID, roleID, permissionID snowflake.ID) error {
	if permissionID == 0 {
		return apperror.MissingField(domain.Entity, "permissionId")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenantRoleID, err := s.tenantRoleID(ctx, tx, tenantID, roleID)
		if err != nil {
			return err
		}
		item, err := s.repo.FindOne(ctx, tx, clause.And(
			clause.Eq{Column: clause.Column{Name: "tenant_role_id"}, Value: tenantRoleID.Int64()},
			clause.Eq{Column: clause.Column{Name: "permission_id"}, Value: permissionID.Int64()},
		))
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NotFound(domain.Entity, "permission %d not attached to tenant role %d", permissionID.Int64(), tenantRoleID.Int64())
		}
		_, err = s.repo.Delete(ctx, tx, item.ID.Int64())
		return err
	})
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) GetPermissionIDs(ctx context.Context, tenantID, roleID snowflake.ID) ([]snowflake.ID, error) {
	tenantRoleID, err := s.tenantRoleID(ctx, s.db, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	raw, err := s.repo.PermissionIDs(ctx, s.db, tenantRoleID.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	ids := make([]snowflake.ID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, snowflake.ID(id))
	}
	return ids, nil
}

func (s *Service) tenantRoleID(ctx context.Context, db *gorm.DB, tenantID, roleID snowflake.ID) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, apperror.MissingField(domain.Entity, "tenantId")
	}
	if roleID == 0 {
		return 0, apperror.MissingField(domain.Entity, "roleId")
	}
	id, err := s.repo.TenantRoleID(ctx, db, tenantID.Int64(), roleID.Int64())
	if err != nil {
		return 0, apperror.Classify(domain.Entity, err)
	}
	if id == 0 {
		return 0, apperror.NotFound(tenantroledomain.Entity, "tenant %d role %d", tenantID.Int64(), roleID.Int64())
	}
	return snowflake.ID(id), nil
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, trp *domain.TenantRolePermission, selfID int64) error {
	ok, err := s.repo.TenantRoleExists(ctx, tx, trp.TenantRoleID.Int64())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound(tenantroledomain.Entity, "id %d", trp.TenantRoleID.Int64())
	}
	ok, err = s.repo.PermissionExists(ctx, tx, trp.PermissionID.Int64())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound(permissiondomain.Entity, "id %d", trp.PermissionID.Int64())
	}
	return s.unique.Check(ctx, tx, &domain.TenantRolePermission{}, domain.Entity, selfID, uniqueKeys(trp)...)
}

func apply(trp *domain.TenantRolePermission, req domain.Request) error {
	if req.TenantRoleID == 0 {
		return apperror.MissingField(domain.Entity, "tenantRoleId")
	}
	if req.PermissionID == 0 {
		return apperror.MissingField(domain.Entity, "permissionId")
	}
	trp.TenantRoleID = req.TenantRoleID
	trp.PermissionID = req.PermissionID
	return nil
}

func uniqueKeys(trp *domain.TenantRolePermission) []uniqueness.Key {
	return []uniqueness.Key{
		{
			{Field: "tenantRoleId", Column: "tenant_role_id", Value: trp.TenantRoleID.Int64()},
			{Field: "permissionId", Column: "permission_id", Value: trp.PermissionID.Int64()},
		},
	}
}
