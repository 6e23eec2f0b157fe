package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/activetenant/repository"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (domain.Service, *testkit.Fixture) {
	t.Helper()

	conn := testkit.DB(t)
	return New(Params{
		DB:     conn,
		Log:    testkit.Logger(t),
		GenID:  testkit.Node(t),
		Repo:   repository.Provide(),
		Unique: testkit.Validator(t),
	}), testkit.NewFixture(t, conn)
}

func TestCreateCopiesTenantName(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	tenant := fx.Tenant("acme")

	record, err := svc.Create(ctx, domain.Request{UserID: 5, TenantID: tenant.ID})
	require.NoError(t, err)
	assert.Equal(t, "acme", record.TenantName)
	assert.False(t, record.IsActive)

	_, err = svc.Create(ctx, domain.Request{UserID: 5, TenantID: tenant.ID})
	require.ErrorIs(t, err, apperror.ErrUniqueness)
	assert.Contains(t, err.Error(), "userId, tenantId")

	_, err = svc.Create(ctx, domain.Request{UserID: 5, TenantID: snowflake.ID(77)})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestActiveFlagStaysSingle(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	a := fx.Tenant("alpha")
	b := fx.Tenant("beta")

	first, err := svc.Create(ctx, domain.Request{UserID: 5, TenantID: a.ID, IsActive: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.Request{UserID: 5, TenantID: b.ID, IsActive: true})
	require.NoError(t, err)

	active := true
	userID := int64(5)
	items, err := svc.Find(ctx, domain.Filter{UserID: &userID, IsActive: &active, LogicConjunction: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	_, err = svc.Update(ctx, first.ID, domain.Request{UserID: 5, TenantID: a.ID, IsActive: true})
	require.NoError(t, err)
	items, err = svc.Find(ctx, domain.Filter{UserID: &userID, IsActive: &active, LogicConjunction: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	tenant := fx.Tenant("acme")

	require.NoError(t, svc.Delete(ctx, snowflake.ID(12)))
	require.ErrorIs(t, svc.Delete(ctx, 0), apperror.ErrInvalidArgument)

	_, err := svc.Create(ctx, domain.Request{UserID: 5, TenantID: tenant.ID})
	require.NoError(t, err)

	ok, err := svc.ExistsFor(ctx, 5, tenant.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.DeleteByTenantAndUser(ctx, tenant.ID, 5))
	require.NoError(t, svc.DeleteByTenantAndUser(ctx, tenant.ID, 5))

	ok, err = svc.ExistsFor(ctx, 5, tenant.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAllSearchesTenantName(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Tango", "Alpha", "Tiger"} {
		_, err := svc.Create(ctx, domain.Request{UserID: 5, TenantID: fx.Tenant(name).ID})
		require.NoError(t, err)
	}

	page, err := svc.GetAll(ctx, query.ListRequest{
		Search: "T%",
		Page:   query.Page{PageNo: 1, PageSize: 1, SortBy: []string{"tenant_name"}, Ascending: true},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalResults)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Tango", page.Results[0].TenantName)
}
