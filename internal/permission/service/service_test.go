package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	actionrepo "github.com/smallbiznis/tenancy/internal/action/repository"
	actionsvc "github.com/smallbiznis/tenancy/internal/action/service"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/permission/domain"
	"github.com/smallbiznis/tenancy/internal/permission/repository"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	resourcerepo "github.com/smallbiznis/tenancy/internal/resource/repository"
	resourcesvc "github.com/smallbiznis/tenancy/internal/resource/service"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	read   *actiondomain.Action
	write  *actiondomain.Action
	tenant *resourcedomain.Resource
	user   *resourcedomain.Resource
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := testkit.DB(t)
	ctx := context.Background()

	actions := actionsvc.New(actionsvc.Params{DB: conn, Log: testkit.Logger(t), GenID: testkit.Node(t), Repo: actionrepo.Provide(), Unique: testkit.Validator(t)})
	resources := resourcesvc.New(resourcesvc.Params{DB: conn, Log: testkit.Logger(t), GenID: testkit.Node(t), Repo: resourcerepo.Provide(), Unique: testkit.Validator(t)})

	read, err := actions.Create(ctx, actiondomain.Request{Name: "READ", Type: "READ"})
	require.NoError(t, err)
	write, err := actions.Create(ctx, actiondomain.Request{Name: "WRITE", Type: "WRITE"})
	require.NoError(t, err)
	tenant, err := resources.Create(ctx, resourcedomain.Request{Name: "tenant"})
	require.NoError(t, err)
	user, err := resources.Create(ctx, resourcedomain.Request{Name: "user"})
	require.NoError(t, err)

	return fixture{
		svc: New(Params{
			DB:     conn,
			Log:    testkit.Logger(t),
			GenID:  testkit.Node(t),
			Repo:   repository.Provide(),
			Unique: testkit.Validator(t),
		}),
		db:     conn,
		read:   read,
		write:  write,
		tenant: tenant,
		user:   user,
	}
}

func TestCreateRequiresExistingActionAndResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.Request{Name: "x", ActionID: snowflake.ID(1), ResourceID: f.tenant.ID})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.Request{Name: "x", ActionID: f.read.ID, ResourceID: snowflake.ID(1)})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.Request{Name: "x", ResourceID: f.tenant.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestUniquenessReportsEachKeySeparately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.Request{Name: "read-tenant", ActionID: f.read.ID, ResourceID: f.tenant.ID})
	require.NoError(t, err)

	var uerr *apperror.UniquenessError

	_, err = f.svc.Create(ctx, domain.Request{Name: "read-tenant", ActionID: f.write.ID, ResourceID: f.user.ID})
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []string{"name"}, uerr.Fields)

	_, err = f.svc.Create(ctx, domain.Request{Name: "tenant-read", ActionID: f.read.ID, ResourceID: f.tenant.ID})
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []string{"actionId", "resourceId"}, uerr.Fields)
}

func TestGetIDByActionAndResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, domain.Request{Name: "read-tenant", ActionID: f.read.ID, ResourceID: f.tenant.ID})
	require.NoError(t, err)

	id, err := f.svc.GetIDByActionAndResource(ctx, "tenant", "READ")
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)

	_, err = f.svc.GetIDByActionAndResource(ctx, "user", "READ")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.GetIDByActionAndResource(ctx, "", "READ")
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.Delete(ctx, snowflake.ID(8)), apperror.ErrNotFound)

	p, err := f.svc.Create(ctx, domain.Request{Name: "read-tenant", ActionID: f.read.ID, ResourceID: f.tenant.ID})
	require.NoError(t, err)

	require.NoError(t, f.db.Exec(
		`INSERT INTO tenant_role_permissions (id, tenant_role_id, permission_id, created_at) VALUES (?, ?, ?, ?)`,
		1, 2, p.ID, time.Now().UTC(),
	).Error)
	require.ErrorIs(t, f.svc.Delete(ctx, p.ID), apperror.ErrReferentialIntegrity)

	require.NoError(t, f.db.Exec(`DELETE FROM tenant_role_permissions`).Error)
	require.NoError(t, f.svc.Delete(ctx, p.ID))
}

func TestUpdateMovesPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, domain.Request{Name: "read-tenant", ActionID: f.read.ID, ResourceID: f.tenant.ID})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, p.ID, domain.Request{Name: "read-user", ActionID: f.read.ID, ResourceID: f.user.ID})
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, updated.ResourceID)

	resourceID := f.user.ID
	items, err := f.svc.Find(ctx, domain.Filter{ResourceID: &resourceID, LogicConjunction: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "read-user", items[0].Name)
}
