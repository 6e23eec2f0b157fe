package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/query"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
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
		log:    p.Log.Named("activetenant.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		unique: p.Unique,
		clock:  clock.Or(p.Clock),
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.ActiveTenant, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.ActiveTenant, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.ActiveTenant], error) {
	return query.Paginate[domain.ActiveTenant](ctx, s.db, query.Search("tenant_name", req.Search), req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.ActiveTenant, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) ExistsFor(ctx context.Context, userID int64, tenantID snowflake.ID) (bool, error) {
	count, err := s.repo.Count(ctx, s.db, userTenant(userID, tenantID))
	return count > 0, apperror.Classify(domain.Entity, err)
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.ActiveTenant, error) {
	now := s.clock.Now()
	record := &domain.ActiveTenant{ID: s.genID.Generate(), CreatedAt: now, UpdatedAt: now}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, record, 0); err != nil {
			return err
		}
		active := record.IsActive
		record.IsActive = false
		if err := s.repo.Create(ctx, tx, record); err != nil {
			return err
		}
		if !active {
			return nil
		}
		record.IsActive = true
		return s.repo.Activate(ctx, tx, record.UserID, record.TenantID.Int64(), now)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.ActiveTenant, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.ActiveTenant{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.ActiveTenant
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
		now := s.clock.Now()
		existing.UserID = candidate.UserID
		existing.TenantID = candidate.TenantID
		existing.TenantName = candidate.TenantName
		existing.IsActive = false
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		record = existing
		if !candidate.IsActive {
			return nil
		}
		record.IsActive = true
		return s.repo.Activate(ctx, tx, existing.UserID, existing.TenantID.Int64(), now)
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
	_, err := s.repo.DeleteWhere(ctx, s.db, userTenant(userID, tenantID))
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, record *domain.ActiveTenant, selfID int64) error {
	tenant, err := s.repo.FindTenant(ctx, tx, record.TenantID.Int64())
	if err != nil {
		return err
	}
	if tenant == nil {
		return apperror.NotFound(tenantdomain.Entity, "id %d", record.TenantID.Int64())
	}
	if record.TenantName == "" {
		record.TenantName = tenant.Name
	}
	return s.unique.Check(ctx, tx, &domain.ActiveTenant{}, domain.Entity, selfID, uniqueKeys(record)...)
}

func apply(record *domain.ActiveTenant, req domain.Request) error {
	if req.UserID == 0 {
		return apperror.MissingField(domain.Entity, "userId")
	}
	if req.TenantID == 0 {
		return apperror.MissingField(domain.Entity, "tenantId")
	}
	record.UserID = req.UserID
	record.TenantID = req.TenantID
	record.TenantName = strings.TrimSpace(req.TenantName)
	record.IsActive = req.IsActive
	return nil
}

func uniqueKeys(record *domain.ActiveTenant) []uniqueness.Key {
	return []uniqueness.Key{
		{
			{Field: "userId", Column: "user_id", Value: record.UserID},
			{Field: "tenantId", Column: "tenant_id", Value: record.TenantID.Int64()},
		},
	}
}

func userTenant(userID int64, tenantID snowflake.ID) clause.Expression {
	return clause.And(
		clause.Eq{Column: clause.Column{Name: "user_id"}, Value: userID},
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID.Int64()},
	)
}
