package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/role/domain"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Unique  *uniqueness.Validator
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	unique  *uniqueness.Validator
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("role.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		unique:  p.Unique,
		clock:   clock.Or(p.Clock),
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Role, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	item, err := s.repo.FindOne(ctx, s.db, clause.Eq{Column: clause.Column{Name: "name"}, Value: name})
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "name %q", name)
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.Role, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.Role], error) {
	return query.Paginate[domain.Role](ctx, s.db, query.Search("name", req.Search), req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.Role, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) Assignable(ctx context.Context, id snowflake.ID) (*domain.Role, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.IsTerminated(s.clock.Now()) {
		return nil, apperror.InvalidArgument(domain.Entity, "role %q is terminated", item.Name)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.Role, error) {
	now := s.clock.Now()
	record := &domain.Role{ID: s.genID.Generate(), CreatedAt: now, UpdatedAt: now}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.unique.Check(ctx, tx, &domain.Role{}, domain.Entity, 0, uniqueKeys(record)...); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, record)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.Role, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.Role{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		if err := s.unique.Check(ctx, tx, &domain.Role{}, domain.Entity, id.Int64(), uniqueKeys(candidate)...); err != nil {
			return err
		}
		existing.Name = candidate.Name
		existing.Description = candidate.Description
		existing.TerminationDate = candidate.TerminationDate
		existing.UpdatedAt = s.clock.Now()
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

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.DeleteMany(ctx, []snowflake.ID{id})
}

// DeleteMany removes every listed role or none. Each role must exist and
// must not be granted to any tenant or named by a linked authorization.
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
			grants, err := s.repo.CountTenantGrants(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			links, err := s.repo.CountLinkedAuthorizations(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if grants+links > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "role %d is granted to %d tenant(s) and %d linked authorization(s)", id.Int64(), grants, links)
			}
		}
		_, err := s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if errors.Is(err, apperror.ErrReferentialIntegrity) {
		s.log.Info("role delete refused", zap.Error(err))
		s.metrics.RecordIntegrityRefusal(ctx, domain.Entity)
	}
	return apperror.Classify(domain.Entity, err)
}

func apply(r *domain.Role, req domain.Request) error {
	r.Name = strings.TrimSpace(req.Name)
	if r.Name == "" {
		return apperror.MissingField(domain.Entity, "name")
	}
	r.Description = nil
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			r.Description = &d
		}
	}
	r.TerminationDate = req.TerminationDate
	return nil
}

func uniqueKeys(r *domain.Role) []uniqueness.Key {
	return []uniqueness.Key{
		{{Field: "name", Column: "name", Value: r.Name}},
	}
}
