package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization/domain"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization/repository"
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

func TestGrantIsUniqueOnAllFourIDs(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	tenant := fx.Tenant("acme")
	role := fx.Role("admin")
	perm := fx.Permission(actiondomain.ActionTypeRead, "tenant")
	req := domain.Request{TenantID: tenant.ID, RoleID: role.ID, PermissionID: perm.ID, UserID: 5}

	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, apperror.ErrUniqueness)
	assert.Contains(t, err.Error(), "tenantId, roleId, permissionId, userId")

	req.UserID = 6
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	req.PermissionID = snowflake.ID(3)
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	req.PermissionID = 0
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestIsRoleGranted(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	tenant := fx.Tenant("acme")
	other := fx.Tenant("globex")
	role := fx.Role("admin")
	perm := fx.Permission(actiondomain.ActionTypeRead, "tenant")
	_, err := svc.Create(ctx, domain.Request{TenantID: tenant.ID, RoleID: role.ID, PermissionID: perm.ID, UserID: 5})
	require.NoError(t, err)

	ok, err := svc.IsRoleGranted(ctx, 5, "admin", tenant.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsRoleGranted(ctx, 5, "admin", other.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsRoleGranted(ctx, 5, "Admin", tenant.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsRoleGranted(ctx, 5, "", tenant.ID)
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestDeleteByTenantAndUser(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	tenant := fx.Tenant("acme")
	role := fx.Role("admin")
	read := fx.Permission(actiondomain.ActionTypeRead, "tenant")
	write := fx.Permission(actiondomain.ActionTypeWrite, "tenant")
	for _, p := range []snowflake.ID{read.ID, write.ID} {
		_, err := svc.Create(ctx, domain.Request{TenantID: tenant.ID, RoleID: role.ID, PermissionID: p, UserID: 5})
		require.NoError(t, err)
	}
	kept, err := svc.Create(ctx, domain.Request{TenantID: tenant.ID, RoleID: role.ID, PermissionID: read.ID, UserID: 6})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByTenantAndUser(ctx, tenant.ID, 5))

	userID := int64(5)
	items, err := svc.Find(ctx, domain.Filter{UserID: &userID, LogicConjunction: true})
	require.NoError(t, err)
	assert.Empty(t, items)

	ok, err := svc.Exists(ctx, kept.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, kept.ID))
	require.NoError(t, svc.Delete(ctx, kept.ID))
}
