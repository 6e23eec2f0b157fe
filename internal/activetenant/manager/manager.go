package manager

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	switchOK       = "ok"
	switchNotFound = "not_found"
	switchError    = "error"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Store   Store
	Locker  Locker
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// Manager drives the per-session active tenant. Membership comes from the
// tenant role user records; the active tenant records only cache the choice.
type Manager struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	store   Store
	locker  Locker
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) *Manager {
	return &Manager{
		db:      p.DB,
		log:     p.Log.Named("activetenant.manager"),
		genID:   p.GenID,
		repo:    p.Repo,
		store:   p.Store,
		locker:  p.Locker,
		clock:   clock.Or(p.Clock),
		metrics: p.Metrics,
	}
}

// Session returns the state held for the session. A missing session, or one
// that belongs to another user, is Uninitialized.
func (m *Manager) Session(ctx context.Context, sessionID string, userID int64) (*SessionState, error) {
	if err := checkIdentity(sessionID, userID); err != nil {
		return nil, err
	}
	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, apperror.Transient(domain.Entity, err)
	}
	if state == nil || state.UserID != userID {
		return newSession(sessionID, userID), nil
	}
	return state, nil
}

func (m *Manager) IsTenantActive(ctx context.Context, sessionID string, userID int64) (bool, error) {
	state, err := m.Session(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	return state.IsTenantActive(), nil
}

// ActiveTenant returns the resolved session, or NotFound when no tenant is
// active.
func (m *Manager) ActiveTenant(ctx context.Context, sessionID string, userID int64) (*SessionState, error) {
	state, err := m.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !state.IsTenantActive() {
		return nil, apperror.NotFound(domain.Entity, "no active tenant for user %d", userID)
	}
	return state, nil
}

// UserTenants lists the names of the user's tenants in ascending order.
func (m *Manager) UserTenants(ctx context.Context, userID int64) ([]string, error) {
	if userID == 0 {
		return nil, apperror.MissingField(domain.Entity, "userId")
	}
	members, err := m.repo.Memberships(ctx, m.db, userID)
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.TenantName)
	}
	sort.Strings(names)
	return names, nil
}

// Init resolves the active tenant from the user's memberships. A flagged
// record wins when it is the only one; otherwise the first record in store
// order is flagged. Calling Init again with the same memberships keeps the
// same tenant.
func (m *Manager) Init(ctx context.Context, sessionID string, userID int64) (*SessionState, error) {
	state, err := m.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	unlock, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var chosen *domain.ActiveTenant
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidates, err := m.candidates(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return m.repo.Activate(ctx, tx, userID, 0, m.clock.Now())
		}

		chosen = &candidates[0]
		var flagged []*domain.ActiveTenant
		for i := range candidates {
			if candidates[i].IsActive {
				flagged = append(flagged, &candidates[i])
			}
		}
		if len(flagged) == 1 {
			chosen = flagged[0]
		}
		return m.repo.Activate(ctx, tx, userID, chosen.TenantID.Int64(), m.clock.Now())
	})
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}

	if chosen == nil {
		state.clear(m.clock.Now())
		m.log.Info("user has no tenant", zap.Int64("user_id", userID))
	} else {
		state.resolve(chosen.TenantID, chosen.TenantName, m.clock.Now())
		m.log.Debug("active tenant resolved",
			zap.Int64("user_id", userID),
			zap.Int64("tenant_id", chosen.TenantID.Int64()),
		)
	}
	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SwitchTo makes the named tenant active. Readers see either the previous or
// the new tenant flagged, never zero or two.
func (m *Manager) SwitchTo(ctx context.Context, sessionID string, userID int64, tenantName string) (*SessionState, error) {
	tenantName = strings.TrimSpace(tenantName)
	if tenantName == "" {
		return nil, apperror.MissingField(domain.Entity, "tenantName")
	}
	state, err := m.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	unlock, err := m.lock(ctx, userID)
	if err != nil {
		m.metrics.RecordTenantSwitch(ctx, switchError)
		return nil, err
	}
	defer unlock()

	previous := *state
	state.State = StateSwitching

	var target *domain.ActiveTenant
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidates, err := m.candidates(ctx, tx, userID)
		if err != nil {
			return err
		}
		for i := range candidates {
			if candidates[i].TenantName != tenantName {
				continue
			}
			if target != nil {
				return apperror.InvalidArgument(domain.Entity, "tenant name %q is ambiguous for user %d", tenantName, userID)
			}
			target = &candidates[i]
		}
		if target == nil {
			return apperror.NotFound(domain.Entity, "user %d is not a member of tenant %q", userID, tenantName)
		}
		return m.repo.Activate(ctx, tx, userID, target.TenantID.Int64(), m.clock.Now())
	})
	if err != nil {
		*state = previous
		result := switchError
		if errors.Is(err, apperror.ErrNotFound) {
			result = switchNotFound
		}
		m.metrics.RecordTenantSwitch(ctx, result)
		return nil, apperror.Classify(domain.Entity, err)
	}

	state.resolve(target.TenantID, target.TenantName, m.clock.Now())
	if err := m.save(ctx, state); err != nil {
		m.metrics.RecordTenantSwitch(ctx, switchError)
		return nil, err
	}
	m.metrics.RecordTenantSwitch(ctx, switchOK)
	m.log.Info("tenant switched",
		zap.Int64("user_id", userID),
		zap.Int64("from_tenant_id", previous.TenantID.Int64()),
		zap.Int64("tenant_id", target.TenantID.Int64()),
	)
	return state, nil
}

// Deactivate clears the flag on every record of the user and leaves the
// session without a tenant until the next Init or SwitchTo.
func (m *Manager) Deactivate(ctx context.Context, sessionID string, userID int64) (*SessionState, error) {
	state, err := m.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	unlock, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return m.repo.Activate(ctx, tx, userID, 0, m.clock.Now())
	})
	if err != nil {
		return nil, apperror.Classify(domain.Entity, err)
	}
	state.clear(m.clock.Now())
	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// candidates returns the user's records for tenants they still belong to,
// in store order, creating the missing ones unflagged and carrying over the
// current tenant name.
func (m *Manager) candidates(ctx context.Context, tx *gorm.DB, userID int64) ([]domain.ActiveTenant, error) {
	members, err := m.repo.Memberships(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	records, err := m.repo.Find(ctx, tx, clause.Eq{Column: clause.Column{Name: "user_id"}, Value: userID})
	if err != nil {
		return nil, err
	}

	byTenant := make(map[snowflake.ID]domain.ActiveTenant, len(records))
	for _, r := range records {
		byTenant[r.TenantID] = r
	}
	isMember := make(map[snowflake.ID]bool, len(members))
	for _, member := range members {
		isMember[member.TenantID] = true
		if existing, ok := byTenant[member.TenantID]; ok {
			if existing.TenantName == member.TenantName {
				continue
			}
			existing.TenantName = member.TenantName
			existing.UpdatedAt = m.clock.Now()
			if err := m.repo.Update(ctx, tx, &existing); err != nil {
				return nil, err
			}
			byTenant[member.TenantID] = existing
			continue
		}
		now := m.clock.Now()
		record := domain.ActiveTenant{
			ID:         m.genID.Generate(),
			UserID:     userID,
			TenantID:   member.TenantID,
			TenantName: member.TenantName,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := m.repo.Create(ctx, tx, &record); err != nil {
			return nil, err
		}
		byTenant[member.TenantID] = record
		records = append(records, record)
	}

	out := make([]domain.ActiveTenant, 0, len(members))
	for _, r := range records {
		if isMember[r.TenantID] {
			out = append(out, byTenant[r.TenantID])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Manager) lock(ctx context.Context, userID int64) (func(), error) {
	unlock, err := m.locker.Lock(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, apperror.Transient(domain.Entity, err)
	}
	return unlock, nil
}

func (m *Manager) save(ctx context.Context, state *SessionState) error {
	if err := m.store.Save(ctx, state); err != nil {
		return apperror.Transient(domain.Entity, err)
	}
	return nil
}

func checkIdentity(sessionID string, userID int64) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperror.MissingField(domain.Entity, "sessionId")
	}
	if userID == 0 {
		return apperror.MissingField(domain.Entity, "userId")
	}
	return nil
}
