package authorization

import (
	"context"
	"testing"
	"time"

	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	permissionrepo "github.com/smallbiznis/tenancy/internal/permission/repository"
	permissionsvc "github.com/smallbiznis/tenancy/internal/permission/service"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	resourcerepo "github.com/smallbiznis/tenancy/internal/resource/repository"
	resourcesvc "github.com/smallbiznis/tenancy/internal/resource/service"
	tenantrolerepo "github.com/smallbiznis/tenancy/internal/tenantrole/repository"
	tenantrolesvc "github.com/smallbiznis/tenancy/internal/tenantrole/service"
	trpdomain "github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	trprepo "github.com/smallbiznis/tenancy/internal/tenantrolepermission/repository"
	trpsvc "github.com/smallbiznis/tenancy/internal/tenantrolepermission/service"
	trudomain "github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	trurepo "github.com/smallbiznis/tenancy/internal/tenantroleuser/repository"
	trusvc "github.com/smallbiznis/tenancy/internal/tenantroleuser/service"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	resolver    *Resolver
	fx          *testkit.Fixture
	decisions   *decision.Cache
	permissions permissiondomain.Service
	resources   resourcedomain.Service
	grants      trpdomain.Service
	members     trudomain.Service
}

func newHarness(t *testing.T, cacheSize int) harness {
	t.Helper()

	conn := testkit.DB(t)
	log := testkit.Logger(t)
	node := testkit.Node(t)
	unique := testkit.Validator(t)
	decisions := decision.NewWithSize(cacheSize, time.Minute)

	permissions := permissionsvc.New(permissionsvc.Params{DB: conn, Log: log, GenID: node, Repo: permissionrepo.Provide(), Unique: unique, Decisions: decisions})
	resources := resourcesvc.New(resourcesvc.Params{DB: conn, Log: log, GenID: node, Repo: resourcerepo.Provide(), Unique: unique, Decisions: decisions})
	tenantRoles := tenantrolesvc.New(tenantrolesvc.Params{DB: conn, Log: log, GenID: node, Repo: tenantrolerepo.Provide(), Unique: unique, Decisions: decisions})
	grants := trpsvc.New(trpsvc.Params{DB: conn, Log: log, GenID: node, Repo: trprepo.Provide(), Unique: unique, Decisions: decisions})
	members := trusvc.New(trusvc.Params{DB: conn, Log: log, GenID: node, Repo: trurepo.Provide(), Unique: unique, Decisions: decisions})

	return harness{
		resolver: NewResolver(Params{
			Log:         log,
			Permissions: permissions,
			TenantRoles: tenantRoles,
			Grants:      grants,
			Members:     members,
			Decisions:   decisions,
		}),
		fx:          testkit.NewFixture(t, conn),
		decisions:   decisions,
		permissions: permissions,
		resources:   resources,
		grants:      grants,
		members:     members,
	}
}

func TestNoMembershipMeansNoPermission(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	tenant := h.fx.Tenant("A")
	tr := h.fx.TenantRole(tenant, h.fx.Role("admin"))
	h.fx.Attach(tr, h.fx.Permission(actiondomain.ActionTypeRead, "tenant"))

	ok, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEveryLinkOfTheChainIsRequired(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	tenant := h.fx.Tenant("A")
	role := h.fx.Role("admin")
	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	tr := h.fx.TenantRole(tenant, role)
	h.fx.Attach(tr, read)
	member := h.fx.Member(tr, 5)

	ok, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.True(t, ok)

	other := h.fx.Tenant("B")
	ok, err = h.resolver.HasPermission(ctx, 5, other.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.resolver.HasPermission(ctx, 6, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.grants.Unassign(ctx, tenant.ID, role.ID, read.ID))
	ok, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.grants.Assign(ctx, tenant.ID, role.ID, read.ID)
	require.NoError(t, err)
	require.NoError(t, h.members.Delete(ctx, member.ID))
	ok, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleOfAnotherTenantDoesNotLeak(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	parent := h.fx.Tenant("parent")
	child := h.fx.Tenant("child")
	role := h.fx.Role("admin")
	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")

	h.fx.Attach(h.fx.TenantRole(parent, role), read)
	h.fx.Member(h.fx.TenantRole(child, role), 5)

	ok, err := h.resolver.HasPermission(ctx, 5, child.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = h.resolver.HasPermission(ctx, 5, parent.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownPermissionIsNotFound(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	tenant := h.fx.Tenant("A")

	_, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "invoice")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "", "tenant")
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = h.resolver.GetIDByActionAndResource(ctx, "invoice", "READ")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	id, err := h.resolver.GetIDByActionAndResource(ctx, "tenant", "READ")
	require.NoError(t, err)
	assert.Equal(t, read.ID, id)
}

func TestDecisionsAreCachedUntilAGrantChanges(t *testing.T) {
	h := newHarness(t, 16)
	ctx := context.Background()

	tenant := h.fx.Tenant("A")
	role := h.fx.Role("admin")
	h.fx.TenantRole(tenant, role)
	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	_, err := h.grants.Assign(ctx, tenant.ID, role.ID, read.ID)
	require.NoError(t, err)

	ok, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, h.decisions.Len())

	_, err = h.members.Assign(ctx, tenant.ID, role.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, h.decisions.Len())

	ok, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	assert.True(t, ok)

	allowed, hit := h.decisions.Get(decision.Key{UserID: 5, TenantID: tenant.ID, Action: "READ", Resource: "tenant"})
	assert.True(t, hit)
	assert.True(t, allowed)
}

func TestCachedDecisionFollowsPermissionChanges(t *testing.T) {
	h := newHarness(t, 16)
	ctx := context.Background()

	tenant := h.fx.Tenant("A")
	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	tr := h.fx.TenantRole(tenant, h.fx.Role("admin"))
	h.fx.Attach(tr, read)
	h.fx.Member(tr, 5)

	ok, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, h.decisions.Len())

	write := h.fx.Action(actiondomain.ActionTypeWrite)
	_, err = h.permissions.Update(ctx, read.ID, permissiondomain.Request{
		Name:       read.Name,
		ActionID:   write.ID,
		ResourceID: read.ResourceID,
	})
	require.NoError(t, err)
	assert.Zero(t, h.decisions.Len())

	_, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	ok, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "WRITE", "tenant")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachedDecisionFollowsResourceRename(t *testing.T) {
	h := newHarness(t, 16)
	ctx := context.Background()

	tenant := h.fx.Tenant("A")
	read := h.fx.Permission(actiondomain.ActionTypeRead, "tenant")
	tr := h.fx.TenantRole(tenant, h.fx.Role("admin"))
	h.fx.Attach(tr, read)
	h.fx.Member(tr, 5)

	ok, err := h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.resources.Update(ctx, read.ResourceID, resourcedomain.Request{Name: "organization"})
	require.NoError(t, err)
	assert.Zero(t, h.decisions.Len())

	_, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "tenant")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	ok, err = h.resolver.HasPermission(ctx, 5, tenant.ID, "READ", "organization")
	require.NoError(t, err)
	assert.True(t, ok)
}
