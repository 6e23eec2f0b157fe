package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/activetenant/repository"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const user = int64(5)

func newTestManager(t *testing.T) (*Manager, *testkit.Fixture) {
	t.Helper()

	conn := testkit.DB(t)
	return New(Params{
		DB:     conn,
		Log:    testkit.Logger(t),
		GenID:  testkit.Node(t),
		Repo:   repository.Provide(),
		Store:  NewMemoryStore(16, time.Hour),
		Locker: NewKeyedMutex(),
	}), testkit.NewFixture(t, conn)
}

func activeCount(t *testing.T, conn *gorm.DB, userID int64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&domain.ActiveTenant{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error)
	return count
}

func TestInitWithoutMembershipsHasNoTenant(t *testing.T) {
	m, _ := newTestManager(t)

	state, err := m.Init(context.Background(), "s1", user)
	require.NoError(t, err)
	assert.Equal(t, StateNoTenant, state.State)
	assert.False(t, state.IsTenantActive())

	_, err = m.ActiveTenant(context.Background(), "s1", user)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestInitPicksFirstAndIsIdempotent(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	role := fx.Role("member")
	for _, name := range []string{"alpha", "beta", "gamma"} {
		fx.Member(fx.TenantRole(fx.Tenant(name), role), user)
	}

	state, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, state.State)
	assert.Equal(t, "alpha", state.TenantName)
	assert.EqualValues(t, 1, activeCount(t, fx.DB, user))

	again, err := m.Init(ctx, "s2", user)
	require.NoError(t, err)
	assert.Equal(t, state.TenantID, again.TenantID)
	assert.EqualValues(t, 1, activeCount(t, fx.DB, user))

	var records int64
	require.NoError(t, fx.DB.Model(&domain.ActiveTenant{}).Where("user_id = ?", user).Count(&records).Error)
	assert.EqualValues(t, 3, records)
}

func TestInitKeepsPreviousSelection(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	role := fx.Role("member")
	fx.Member(fx.TenantRole(fx.Tenant("alpha"), role), user)
	fx.Member(fx.TenantRole(fx.Tenant("beta"), role), user)

	_, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)
	_, err = m.SwitchTo(ctx, "s1", user, "beta")
	require.NoError(t, err)

	state, err := m.Init(ctx, "s2", user)
	require.NoError(t, err)
	assert.Equal(t, "beta", state.TenantName)
}

func TestSwitchTo(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	role := fx.Role("member")
	fx.Member(fx.TenantRole(fx.Tenant("alpha"), role), user)
	fx.Member(fx.TenantRole(fx.Tenant("beta"), role), user)
	fx.Tenant("outsider")

	_, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)

	state, err := m.SwitchTo(ctx, "s1", user, "beta")
	require.NoError(t, err)
	assert.Equal(t, "beta", state.TenantName)
	assert.EqualValues(t, 1, activeCount(t, fx.DB, user))

	same, err := m.SwitchTo(ctx, "s1", user, "beta")
	require.NoError(t, err)
	assert.Equal(t, state.TenantID, same.TenantID)
	assert.EqualValues(t, 1, activeCount(t, fx.DB, user))

	_, err = m.SwitchTo(ctx, "s1", user, "outsider")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	current, err := m.ActiveTenant(ctx, "s1", user)
	require.NoError(t, err)
	assert.Equal(t, "beta", current.TenantName)

	_, err = m.SwitchTo(ctx, "s1", user, " ")
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestSwitchToFollowsTenantRename(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	tenant := fx.Tenant("alpha")
	fx.Member(fx.TenantRole(tenant, fx.Role("member")), user)
	_, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)

	require.NoError(t, fx.DB.Model(tenant).Update("name", "omega").Error)

	names, err := m.UserTenants(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"omega"}, names)

	state, err := m.SwitchTo(ctx, "s1", user, "omega")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, state.TenantID)
	assert.Equal(t, "omega", state.TenantName)

	_, err = m.SwitchTo(ctx, "s1", user, "alpha")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	var record domain.ActiveTenant
	require.NoError(t, fx.DB.Where("user_id = ? AND tenant_id = ?", user, tenant.ID).Take(&record).Error)
	assert.Equal(t, "omega", record.TenantName)
	assert.True(t, record.IsActive)
}

func TestConcurrentSwitchesKeepOneActive(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	role := fx.Role("member")
	names := []string{"alpha", "beta", "gamma"}
	for _, name := range names {
		fx.Member(fx.TenantRole(fx.Tenant(name), role), user)
	}
	_, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := m.SwitchTo(ctx, "s1", user, name)
			assert.NoError(t, err)
		}(names[i%len(names)])
	}
	wg.Wait()

	assert.EqualValues(t, 1, activeCount(t, fx.DB, user))
	state, err := m.ActiveTenant(ctx, "s1", user)
	require.NoError(t, err)

	var flagged domain.ActiveTenant
	require.NoError(t, fx.DB.Where("user_id = ? AND is_active = ?", user, true).Take(&flagged).Error)
	assert.Equal(t, flagged.TenantID, state.TenantID)
}

func TestDeactivateAndUserTenants(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	role := fx.Role("member")
	fx.Member(fx.TenantRole(fx.Tenant("zeta"), role), user)
	fx.Member(fx.TenantRole(fx.Tenant("alpha"), role), user)

	names, err := m.UserTenants(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	_, err = m.Init(ctx, "s1", user)
	require.NoError(t, err)

	state, err := m.Deactivate(ctx, "s1", user)
	require.NoError(t, err)
	assert.Equal(t, StateNoTenant, state.State)
	assert.Zero(t, activeCount(t, fx.DB, user))

	active, err := m.IsTenantActive(ctx, "s1", user)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSessionBelongsToOneUser(t *testing.T) {
	m, fx := newTestManager(t)
	ctx := context.Background()

	fx.Member(fx.TenantRole(fx.Tenant("alpha"), fx.Role("member")), user)
	_, err := m.Init(ctx, "s1", user)
	require.NoError(t, err)

	state, err := m.Session(ctx, "s1", user+1)
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, state.State)

	_, err = m.Session(ctx, "", user)
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}
