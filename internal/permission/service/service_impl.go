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
	"github.com/smallbiznis/tenancy/internal/permission/domain"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
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
		log:       p.Log.Named("permission.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		unique:    p.Unique,
		clock:     clock.Or(p.Clock),
		metrics:   p.Metrics,
		decisions: p.Decisions,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Permission, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.Permission, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.Permission], error) {
	return query.Paginate[domain.Permission](ctx, s.db, query.Search("name", req.Search), req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.Permission, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetByActionAndResourceNames(ctx context.Context, actionName, resourceName string) (*domain.Permission, error) {
	actionName = strings.TrimSpace(actionName)
	if actionName == "" {
		return nil, apperror.MissingField(domain.Entity, "action")
	}
	resourceName = strings.TrimSpace(resourceName)
	if resourceName == "" {
		return nil, apperror.MissingField(domain.Entity, "resource")
	}

	item, err := s.repo.FindByNames(ctx, s.db, actionName, resourceName)
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "action %q on resource %q", actionName, resourceName)
	}
	return item, nil
}

func (s *Service) GetIDByActionAndResource(ctx context.Context, resourceName, actionName string) (snowflake.ID, error) {
	item, err := s.GetByActionAndResourceNames(ctx, actionName, resourceName)
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.Permission, error) {
	now := s.clock.Now()
	record := &domain.Permission{ID: s.genID.Generate(), CreatedAt: now, UpdatedAt: now}
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

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.Permission, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}
	candidate := &domain.Permission{ID: id}
	if err := apply(candidate, req); err != nil {
		return nil, err
	}

	var record *domain.Permission
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
		existing.Name = candidate.Name
		existing.ActionID = candidate.ActionID
		existing.ResourceID = candidate.ResourceID
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

// DeleteMany removes every listed permission or none. Each must exist and
// must not be attached to a tenant role or a linked authorization.
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
			grants, err := s.repo.CountRoleGrants(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			links, err := s.repo.CountLinkedAuthorizations(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if grants+links > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "permission %d is attached to %d tenant role(s) and %d linked authorization(s)", id.Int64(), grants, links)
			}
		}
		_, err := s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if errors.Is(err, apperror.ErrReferentialIntegrity) {
		s.log.Info("permission delete refused", zap.Error(err))
		s.metrics.RecordIntegrityRefusal(ctx, domain.Entity)
	}
	if err == nil {
		s.decisions.Purge()
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, p *domain.Permission, selfID int64) error {
	ok, err := s.repo.ActionExists(ctx, tx, p.ActionID.Int64())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("action", "id %d", p.ActionID.Int64())
	}
	ok, err = s.repo.ResourceExists(ctx, tx, p.ResourceID.Int64())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("resource", "id %d", p.ResourceID.Int64())
	}
	return s.unique.Check(ctx, tx, &domain.Permission{}, domain.Entity, selfID, uniqueKeys(p)...)
}

func apply(p *domain.Permission, req domain.Request) error {
	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" {
		return apperror.MissingField(domain.Entity, "name")
	}
	if req.ActionID == 0 {
		return apperror.MissingField(domain.Entity, "actionId")
	}
	if req.ResourceID == 0 {
		return apperror.MissingField(domain.Entity, "resourceId")
	}
	p.ActionID = req.ActionID
	p.ResourceID = req.ResourceID
	return nil
}

// uniqueKeys checks the name first, then the action and resource pair, each
// reported with its own fields.
func uniqueKeys(p *domain.Permission) []uniqueness.Key {
	return []uniqueness.Key{
		{{Field: "name", Column: "name", Value: p.Name}},
		{
			{Field: "actionId", Column: "action_id", Value: p.ActionID.Int64()},
			{Field: "resourceId", Column: "resource_id", Value: p.ResourceID.Int64()},
		},
	}
}
