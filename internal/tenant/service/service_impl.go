package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
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
		log:     p.Log.Named("tenant.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		unique:  p.Unique,
		clock:   clock.Or(p.Clock),
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "id %d", id.Int64())
	}
	return item, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.Tenant, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, query.Int64s(ids))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[domain.Tenant], error) {
	return query.Paginate[domain.Tenant](ctx, s.db, query.Search("name", req.Search), req.Page, domain.SortColumns)
}

func (s *Service) Find(ctx context.Context, filter domain.Filter) ([]domain.Tenant, error) {
	items, err := s.repo.Find(ctx, s.db, query.Build(filter.Predicate()))
	return items, apperror.Classify(domain.Entity, err)
}

func (s *Service) GetChildren(ctx context.Context, id snowflake.ID) ([]domain.Tenant, error) {
	return s.Find(ctx, domain.Filter{ParentID: &id, Exact: true, LogicConjunction: true})
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, id.Int64())
	return ok, apperror.Classify(domain.Entity, err)
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.Tenant, error) {
	now := s.clock.Now()
	record := &domain.Tenant{
		ID:        s.genID.Generate(),
		CreatedAt: now,
	}
	if err := s.apply(record, req); err != nil {
		return nil, err
	}
	record.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, record, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, record)
	})
	if err != nil {
		return nil, s.translate(err, record)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.Request) (*domain.Tenant, error) {
	if id == 0 {
		return nil, apperror.MissingField(domain.Entity, "id")
	}

	var candidate, record *domain.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(domain.Entity, "id %d", id.Int64())
		}
		if err := s.apply(existing, req); err != nil {
			return err
		}
		candidate = existing
		if err := s.checkAncestry(ctx, tx, id, existing.ParentID); err != nil {
			return err
		}
		existing.UpdatedAt = s.clock.Now()
		if err := s.validate(ctx, tx, existing, id.Int64()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return nil, s.translate(err, candidate)
	}
	return record, nil
}

// Delete removes a tenant that has no open children or client dependents and
// no role grants or linked authorizations. A missing tenant is not an error.
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

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		for _, id := range ids {
			children, err := s.repo.CountLiveChildren(ctx, tx, id.Int64(), now)
			if err != nil {
				return err
			}
			if children > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "tenant %d has %d active child tenant(s)", id.Int64(), children)
			}
			grants, err := s.repo.CountRoleGrants(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if grants > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "tenant %d has %d role association(s)", id.Int64(), grants)
			}
			dependents, err := s.repo.CountLiveClientDependents(ctx, tx, id.Int64(), now)
			if err != nil {
				return err
			}
			if dependents > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "tenant %d is the client of %d active tenant(s)", id.Int64(), dependents)
			}
			links, err := s.repo.CountLinkedAuthorizations(ctx, tx, id.Int64())
			if err != nil {
				return err
			}
			if links > 0 {
				return apperror.ReferentialIntegrity(domain.Entity, "tenant %d has %d linked authorization(s)", id.Int64(), links)
			}
		}
		_, err := s.repo.Delete(ctx, tx, query.Int64s(ids)...)
		return err
	})
	if errors.Is(err, apperror.ErrReferentialIntegrity) {
		s.log.Info("tenant delete refused", zap.Error(err))
		s.metrics.RecordIntegrityRefusal(ctx, domain.Entity)
	}
	return apperror.Classify(domain.Entity, err)
}

func (s *Service) apply(t *domain.Tenant, req domain.Request) error {
	t.Name = strings.TrimSpace(req.Name)
	if t.Name == "" {
		return apperror.MissingField(domain.Entity, "name")
	}
	t.Key = slug.Make(req.Key)
	if t.Key == "" {
		return apperror.MissingField(domain.Entity, "key")
	}
	if req.Type == "" {
		return apperror.MissingField(domain.Entity, "type")
	}
	t.Type = domain.TenantType(strings.ToUpper(string(req.Type)))
	if !t.Type.Valid() {
		return apperror.InvalidArgument(domain.Entity, "unknown tenant type %q", req.Type)
	}
	if req.Start != nil && req.End != nil && !req.End.After(*req.Start) {
		return apperror.InvalidArgument(domain.Entity, "end date must be after start date")
	}

	t.ParentID = req.ParentID
	t.ClientID = req.ClientID
	t.Start = req.Start
	t.End = req.End
	t.Address = trimmed(req.Address)
	t.Phone = trimmed(req.Phone)
	t.Email = trimmed(req.Email)
	t.Website = trimmed(req.Website)
	t.Metadata = nil
	if req.Metadata != nil {
		t.Metadata = datatypes.JSONMap(req.Metadata)
	}
	return nil
}

// validate enforces the tree rules for the tenant type and runs the
// uniqueness keys. selfID is zero on create.
func (s *Service) validate(ctx context.Context, tx *gorm.DB, t *domain.Tenant, selfID int64) error {
	switch t.Type {
	case domain.TenantTypeRoot:
		if t.ParentID != nil {
			return apperror.InvalidArgument(domain.Entity, "ROOT tenant cannot have a parent")
		}
		if t.ClientID != nil {
			return apperror.InvalidArgument(domain.Entity, "ROOT tenant cannot have a client")
		}
		roots, err := s.repo.CountRoots(ctx, tx, selfID)
		if err != nil {
			return err
		}
		if roots > 0 {
			return apperror.InvalidArgument(domain.Entity, "a ROOT tenant already exists")
		}
	case domain.TenantTypeClient:
		parent, err := s.requireTenant(ctx, tx, t.ParentID, "parentId")
		if err != nil {
			return err
		}
		if parent.Type == domain.TenantTypeSub {
			return apperror.InvalidArgument(domain.Entity, "CLIENT tenant cannot be placed under a SUB tenant")
		}
	case domain.TenantTypeSub:
		if _, err := s.requireTenant(ctx, tx, t.ParentID, "parentId"); err != nil {
			return err
		}
		client, err := s.requireTenant(ctx, tx, t.ClientID, "clientId")
		if err != nil {
			return err
		}
		if client.Type != domain.TenantTypeClient {
			return apperror.InvalidArgument(domain.Entity, "clientId %d is not a CLIENT tenant", client.ID.Int64())
		}
	}

	return s.unique.Check(ctx, tx, &domain.Tenant{}, domain.Entity, selfID, uniqueKeys(t)...)
}

// checkAncestry walks up from parentID and refuses a parent that is id
// itself or one of its descendants.
func (s *Service) checkAncestry(ctx context.Context, tx *gorm.DB, id snowflake.ID, parentID *snowflake.ID) error {
	seen := make(map[snowflake.ID]bool)
	for next := parentID; next != nil && *next != 0; {
		if *next == id {
			return apperror.InvalidArgument(domain.Entity, "tenant %d cannot be placed under itself or its descendant", id.Int64())
		}
		if seen[*next] {
			return apperror.InvalidArgument(domain.Entity, "parent chain of tenant %d loops", next.Int64())
		}
		seen[*next] = true
		ancestor, err := s.repo.FindByID(ctx, tx, next.Int64())
		if err != nil {
			return err
		}
		if ancestor == nil {
			return nil
		}
		next = ancestor.ParentID
	}
	return nil
}

func (s *Service) requireTenant(ctx context.Context, tx *gorm.DB, id *snowflake.ID, field string) (*domain.Tenant, error) {
	if id == nil || *id == 0 {
		return nil, apperror.MissingField(domain.Entity, field)
	}
	item, err := s.repo.FindByID(ctx, tx, id.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound(domain.Entity, "%s %d", field, id.Int64())
	}
	return item, nil
}

func (s *Service) translate(err error, t *domain.Tenant) error {
	if t == nil {
		return apperror.Classify(domain.Entity, err)
	}
	return uniqueness.Translate(domain.Entity, err, uniqueKeys(t)...)
}

func uniqueKeys(t *domain.Tenant) []uniqueness.Key {
	var parent any
	if t.ParentID != nil {
		parent = t.ParentID.Int64()
	}
	return []uniqueness.Key{
		{{Field: "key", Column: "tenant_key", Value: t.Key}},
		{{Field: "parentId", Column: "parent_id", Value: parent}, {Field: "name", Column: "name", Value: t.Name}},
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
