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
	"github.com/smallbiznis/tenancy/internal/resource/domain"
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
		log:       p.Log.Named("resource.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		unique:    p.Unique,
		clock:     clock.Or(p.Clock),
		metrics:   p.Metrics,
		decisions: p.Decisions,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Resource, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Resource, error) {
	item, err := s.repo.FindOne(ctx, s.db, clause.Eq{Column: clause.Column{Name: "name"}, Value: name})
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "name %q", name)
	}
	return item, nil
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.Resource], error) {
	return query.Paginate[domain.Resource](ctx, s.db, query.Search("name", req.Search), req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.Resource, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.Resource, error) {
	now := s.clock.Now()
	record := &domain.Resource{ID: s.genID.Generate(), CreatedAt: now, UpdatedAt: now}
	if err := apply(record, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.unique.Check(ctx, tx, &domain.Resource{}, domain.Entity, 0, uniqueKeys(record)...); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, record)
	})
	if err != nil {
		return nil, uniqueness.Translate(domain.Entity, err, uniqueKeys(record)...)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.Resource, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.Resource{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.Resource
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		if err := s.unique.Check(ctx, tx, &domain.Resource{}, domain.Entity, id.Int64(), uniqueKeys(candidate)...); err != nil {
			return err
		}
		existing.Name = candidate.Name
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
	s.decisions.Purge()
	return record, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.DeleteMany(ctx, []snowflake.ID{id})
}

// DeleteMany ignores ids that do not exist but refuses to remove a resource
// a permission still points at.
func (s *Service) DeleteMany(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return apperror.MissingField(domain.Entity, "ids")
	}
	for _, id := range ids {
		if id == 0 {
			return apperror.MissingField(domain.Entity, "id")
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs, err := s.repo.CountPermissions(ctx, tx, query.Int64s(ids))
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperror.ReferentialIntegrity(domain.Entity, "%d permission(s) reference the resource(s)", refs)
		}
		_, err = s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if errors.Is(err, apperror.ErrReferentialIntegrity) {
		s.log.Info("resource delete refused", zap.Error(err))
		s.metrics.RecordIntegrityRefusal(ctx, domain.Entity)
	}
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func apply(r *domain.Resource, req domain.Request) error {
	r.Name = strings.TrimSpace(req.Name)
	if r.Name == "" {
		return apperror.MissingField(domain.Entity, "name")
	}
	return nil
}

func uniqueKeys(r *domain.Resource) []uniqueness.Key {
	return []uniqueness.Key{
		{{Field: "name", Column: "name", Value: r.Name}},
	}
}
