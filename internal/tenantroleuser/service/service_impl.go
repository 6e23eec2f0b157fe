package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/query"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
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
		log:       p.Log.Named("tenantroleuser.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		unique:    p.Unique,
		clock:     clock.Or(p.Clock),
		decisions: p.Decisions,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.TenantRoleUser, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.TenantRoleUser, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.TenantRoleUser], error) {
	where := query.All()
	if strings.TrimSpace(req.Search) != "" {
		where = clause.Expr{
			SQL:  "tenant_role_id IN (SELECT tr.id FROM tenant_roles tr JOIN roles r ON r.id = tr.role_id WHERE r.name LIKE ?)",
			Vars: []any{req.Search},
		}
	}
	return query.Paginate[domain.TenantRoleUser](ctx, s.db, where, req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.TenantRoleUser, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

// Create links the user and makes sure an active tenant record exists for
// the tenant of the role.
func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.TenantRoleUser, error) {
	record := &domain.TenantRoleUser{ID: s.genID.Generate(), CreatedAt: s.clock.Now()}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.create(ctx, tx, record)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	s.decisions.Purge()
	return record, nil
}

func (s *Service) Assign(ctx context.Context, tenantID, roleID snowflake.ID, userID int64) (*domain.TenantRoleUser, error) {
	record := &domain.TenantRoleUser{ID: s.genID.Generate(), UserID: userID, CreatedAt: s.clock.Now()}
	if userID == 0 {
		return nil, apperror.MissingField(domain.Entity, "userId")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenantRoleID, err := s.tenantRoleID(ctx, tx, tenantID, roleID)
		if err != nil {
			return err
		}
		record.TenantRoleID = tenantRoleID
		return s.create(ctx, tx, record)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	s.decisions.Purge()
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.TenantRoleUser, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.TenantRoleUser{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.TenantRoleUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		previous, err := s.repo.FindTenantRole(ctx, tx, existing.TenantRoleID.Int64())
		if err != nil {
			return err
		}
		next, err := s.validate(ctx, tx, candidate, id.Int64())
		if err != nil {
			return err
		}
		previousUser := existing.UserID
		existing.TenantRoleID = candidate.TenantRoleID
		existing.UserID = candidate.UserID
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		if err := s.repo.EnsureActiveTenant(ctx, tx, s.genID.Generate().Int64(), existing.UserID, next.TenantID.Int64(), s.clock.Now()); err != nil {
			return err
		}
		if previous != nil {
			if err := s.repo.ReleaseActiveTenant(ctx, tx, previousUser, previous.TenantID.Int64()); err != nil {
				return err
			}
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

// DeleteMany removes every listed link or none, then drops the active tenant
// records of users left without any role in the tenant.
func (s *Service) DeleteMany(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return apperror.MissingField(domain.Entity, "ids")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		links := make([]domain.TenantRoleUser, 0, len(ids))
		for _, id := range ids {
			if id == 0 {
				return apperror.MissingField(domain.Entity, "id")
			}
			item, err := s.repo.FindByID(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if item == nil {
				return apperror.NotFound(domain.Entity, "id %d", id.Int64())
			}
			links = append(links, *item)
		}
		return s.remove(ctx, tx, links)
	})
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) Unassign(ctx context.Context, tenantID snowflake.ID, roleIDs []snowflake.ID, userID int64) error {
	if len(roleIDs) == 0 {
		return apperror.MissingField(domain.Entity, "roleIds")
	}
	if userID == 0 {
		return apperror.MissingField(domain.Entity, "userId")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		links := make([]domain.TenantRoleUser, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			tenantRoleID, err := s.tenantRoleID(ctx, tx, tenantID, roleID)
			if err != nil {
				return err
			}
			items, err := s.repo.Find(ctx, tx, clause.And(
				clause.Eq{Column: clause.Column{Name: "tenant_role_id"}, Value: tenantRoleID.Int64()},
				clause.Eq{Column: clause.Column{Name: "user_id"}, Value: userID},
			))
			if err != nil {
				return err
			}
			links = append(links, items...)
		}
		if len(links) == 0 {
			return apperror.NotFound(domain.Entity, "user %d holds none of the roles in tenant %d", userID, tenantID.Int64())
		}
		return s.remove(ctx, tx, links)
	})
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) GetTenantIDs(ctx context.Context, userID int64, roleID *snowflake.ID) ([]snowflake.ID, error) {
	if userID == 0 {
		return nil, apperror.MissingField(domain.Entity, "userId")
	}
	raw, err := s.repo.TenantIDs(ctx, s.db, userID, optionalID(roleID))
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	ids := make([]snowflake.ID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, snowflake.ID(id))
	}
	return ids, nil
}

func (s *Service) GetUserIDs(ctx context.Context, tenantID snowflake.ID, roleID *snowflake.ID, page query.Page) (pagination.Page[int64], error) {
	if tenantID == 0 {
		return pagination.Page[int64]{}, apperror.MissingField(domain.Entity, "tenantId")
	}
	if page.PageNo < 1 || page.PageSize < 1 {
		return pagination.Page[int64]{}, apperror.InvalidArgument(domain.Entity, "page number and size must be >= 1")
	}
	ids, total, err := s.repo.UserIDs(ctx, s.db, tenantID.Int64(), optionalID(roleID), (page.PageNo-1)*page.PageSize, page.PageSize)
	if err != nil {
		return pagination.Page[int64]{}, apperror.Classify(domain.Entity, err)
	}
	return pagination.New(ids, page.PageNo, page.PageSize, total), nil
}

func (s *Service) create(ctx context.Context, tx *gorm.DB, record *domain.TenantRoleUser) error {
	tr, err := s.validate(ctx, tx, record, 0)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, tx, record); err != nil {
		return err
	}
	return s.repo.EnsureActiveTenant(ctx, tx, s.genID.Generate().Int64(), record.UserID, tr.TenantID.Int64(), s.clock.Now())
}

func (s *Service) remove(ctx context.Context, tx *gorm.DB, links []domain.TenantRoleUser) error {
	ids := make([]int64, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID.Int64())
	}
	if _, err := s.repo.Delete(ctx, tx, ids...); err != nil {
		return err
	}
	for _, link := range links {
		tr, err := s.repo.FindTenantRole(ctx, tx, link.TenantRoleID.Int64())
		if err != nil {
			return err
		}
		if tr == nil {
			continue
		}
		if err := s.repo.ReleaseActiveTenant(ctx, tx, link.UserID, tr.TenantID.Int64()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) tenantRoleID(ctx context.Context, tx *gorm.DB, tenantID, roleID snowflake.ID) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, apperror.MissingField(domain.Entity, "tenantId")
	}
	if roleID == 0 {
		return 0, apperror.MissingField(domain.Entity, "roleId")
	}
	id, err := s.repo.TenantRoleID(ctx, tx, tenantID.Int64(), roleID.Int64())
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, apperror.NotFound(tenantroledomain.Entity, "tenant %d role %d", tenantID.Int64(), roleID.Int64())
	}
	return snowflake.ID(id), nil
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, record *domain.TenantRoleUser, selfID int64) (*tenantroledomain.TenantRole, error) {
	tr, err := s.repo.FindTenantRole(ctx, tx, record.TenantRoleID.Int64())
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, apperror.NotFound(tenantroledomain.Entity, "id %d", record.TenantRoleID.Int64())
	}
	if err := s.unique.Check(ctx, tx, &domain.TenantRoleUser{}, domain.Entity, selfID, uniqueKeys(record)...); err != nil {
		return nil, err
	}
	return tr, nil
}

func apply(record *domain.TenantRoleUser, req domain.Request) error {
	if req.TenantRoleID == 0 {
		return apperror.MissingField(domain.Entity, "tenantRoleId")
	}
	if req.UserID == 0 {
		return apperror.MissingField(domain.Entity, "userId")
	}
	record.TenantRoleID = req.TenantRoleID
	record.UserID = req.UserID
	return nil
}

func uniqueKeys(record *domain.TenantRoleUser) []uniqueness.Key {
	return []uniqueness.Key{
		{
			{Field: "tenantRoleId", Column: "tenant_role_id", Value: record.TenantRoleID.Int64()},
			{Field: "userId", Column: "user_id", Value: record.UserID},
		},
	}
}

func optionalID(id *snowflake.ID) *int64 {
	if id == nil {
		return nil
	}
	v := id.Int64()
	return &v
}
