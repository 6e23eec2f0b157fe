package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	"github.com/smallbiznis/tenancy/internal/query"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	"github.com/smallbiznis/tenancy/internal/tenantrole/domain"
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
	Clock     clock.Clock      `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
	Decisions *decision.Cache  `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	unique    *uniqueness.Validator
	clock     clock.Clock
	metrics   *metrics.Metrics
	decisions *decision.Cache
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("tenantrole.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		unique:    p.Unique,
		clock:     clock.Or(p.Clock),
		metrics:   p.Metrics,
		decisions: p.Decisions,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.TenantRole, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.TenantRole, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.TenantRole], error) {
	where := query.SearchIn("role_id", "roles", "name", req.Search)
	return query.Paginate[domain.TenantRole](ctx, s.db, where, req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.TenantRole, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx, s.db, nil)
	return count, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetIDByTenantRole(ctx context.Context, tenantID, roleID snowflake.ID) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, apperror.MissingField(domain.Entity, "tenantId")
	}
	if roleID == 0 {
		return 0, apperror.MissingField(domain.Entity, "roleId")
	}
	item, err := s.repo.FindOne(ctx, s.db, pair(tenantID, roleID))
	if err != nil {
		return 0, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return 0, apperror.NotFound(domain.Entity, "tenant %d role %d", tenantID.Int64(), roleID.Int64())
	}
	return item.ID, nil
}

func (s *Service) ExistsAssociation(ctx context.Context, tenantID, roleID snowflake.ID) (bool, error) {
	count, err := s.repo.Count(ctx, s.db, pair(tenantID, roleID))
	return count > 0, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetRolesForUserTenant(ctx context.Context, userID int64, tenantID snowflake.ID) ([]roledomain.Role, error) {
	if userID == 0 {
		return nil, apperror.MissingField(domain.Entity, "userId")
	}
	if tenantID == 0 {
		return nil, apperror.MissingField(domain.Entity, "tenantId")
	}
	roles, err := s.repo.RolesForUserTenant(ctx, s.db, userID, tenantID.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if roles == nil {
		roles = []roledomain.Role{}
	}
	return roles, nil
}

func (s *Service) HasAnyRole(ctx context.Context, userID int64, roleNames []string, tenantID snowflake.ID) (bool, error) {
	names := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return false, apperror.MissingField(domain.Entity, "roleNames")
	}
	if userID == 0 {
		return false, apperror.MissingField(domain.Entity, "userId")
	}
	if tenantID == 0 {
		return false, apperror.MissingField(domain.Entity, "tenantId")
	}
	count, err := s.repo.CountUserRolesNamed(ctx, s.db, userID, tenantID.Int64(), names)
	if err != nil {
		return false, apperror.Classify(domain.Entity, err)
	}
	return count > 0, nil
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.TenantRole, error) {
	record := &domain.TenantRole{ID: s.genID.Generate(), CreatedAt: s.clock.Now()}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, record, 0, true); err != nil {
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

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.TenantRole, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.TenantRole{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.TenantRole
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		// keeping a role that was terminated after the grant is allowed
		if err := s.validate(ctx, tx, candidate, id.Int64(), candidate.RoleID != existing.RoleID); err != nil {
			return err
		}
		existing.TenantID = candidate.TenantID
		existing.RoleID = candidate.RoleID
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

// DeleteMany removes every listed tenant role or none. Each must exist and
// must no longer carry users or permissions.
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
			users, err := s.repo.CountUsers(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			perms, err := s.repo.CountPermissions(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if users+perms > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "tenant role %d still has %d user(s) and %d permission(s)", id.Int64(), users, perms)
			}
		}
		_, err := s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if errors.Is(err, apperror.ErrReferentialIntegrity) {
		s.log.Info("tenant role delete refused", zap.Error(err))
		s.metrics.RecordIntegrityRefusal(ctx, domain.Entity)
	}
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, tr *domain.TenantRole, selfID int64, checkAssignable bool) error {
	tenant, err := s.repo.FindTenant(ctx, tx, tr.TenantID.Int64())
	if err != nil {
		return err
	}
	if tenant == nil {
		return apperror.NotFound("tenant", "id %d", tr.TenantID.Int64())
	}
	role, err := s.repo.FindRole(ctx, tx, tr.RoleID.Int64())
	if err != nil {
		return err
	}
	if role == nil {
		return apperror.NotFound(roledomain.Entity, "id %d", tr.RoleID.Int64())
	}
	if checkAssignable && role.IsTerminated(s.clock.Now()) {
		return apperror.InvalidArgument(roledomain.Entity, "role %q is terminated", role.Name)
	}
	return s.unique.Check(ctx, tx, &domain.TenantRole{}, domain.Entity, selfID, uniqueKeys(tr)...)
}

func apply(tr *domain.TenantRole, req domain.Request) error {
	if req.TenantID == 0 {
		return apperror.MissingField(domain.Entity, "tenantId")
	}
	if req.RoleID == 0 {
		return apperror.MissingField(domain.Entity, "roleId")
	}
	tr.TenantID = req.TenantID
	tr.RoleID = req.RoleID
	return nil
}

func uniqueKeys(tr *domain.TenantRole) []uniqueness.Key {
	return []uniqueness.Key{
		{
			{Field: "tenantId", Column: "tenant_id", Value: tr.TenantID.Int64()},
			{Field: "roleId", Column: "role_id", Value: tr.RoleID.Int64()},
		},
	}
}

func pair(tenantID, roleID snowflake.ID) clause.Expression {
	return clause.And(
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID.Int64()},
		clause.Eq{Column: clause.Column{Name: "role_id"}, Value: roleID.Int64()},
	)
}
