package seed_test

import (
	"context"
	"testing"
	"time"

	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	"github.com/smallbiznis/tenancy/internal/seed"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEnsureIsIdempotent(t *testing.T) {
	conn := testkit.DB(t)
	node := testkit.Node(t)
	ctx := context.Background()
	root := seed.Root{Name: "Root", Key: "Root Tenant"}

	require.NoError(t, seed.Ensure(ctx, conn, node, root, now))
	require.NoError(t, seed.Ensure(ctx, conn, node, root, now))

	var actions []actiondomain.Action
	require.NoError(t, conn.Order("name").Find(&actions).Error)
	assert.Len(t, actions, len(actiondomain.ActionTypes))

	var resources int64
	require.NoError(t, conn.Model(&resourcedomain.Resource{}).Count(&resources).Error)
	assert.EqualValues(t, len(seed.Resources), resources)

	var tenants []tenantdomain.Tenant
	require.NoError(t, conn.Find(&tenants).Error)
	require.Len(t, tenants, 1)
	assert.Equal(t, tenantdomain.TenantTypeRoot, tenants[0].Type)
	assert.Equal(t, "root-tenant", tenants[0].Key)
	assert.Nil(t, tenants[0].ParentID)
}

func TestEnsureKeepsExistingRoot(t *testing.T) {
	conn := testkit.DB(t)
	node := testkit.Node(t)

	existing := &tenantdomain.Tenant{
		ID:        node.Generate(),
		Name:      "headquarters",
		Key:       "hq",
		Type:      tenantdomain.TenantTypeRoot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	testkit.Seed(t, conn, existing)

	require.NoError(t, seed.Ensure(context.Background(), conn, node, seed.Root{Name: "root", Key: "root"}, now))

	var tenants []tenantdomain.Tenant
	require.NoError(t, conn.Find(&tenants).Error)
	require.Len(t, tenants, 1)
	assert.Equal(t, existing.ID, tenants[0].ID)
}

func TestEnsureRequiresGenerator(t *testing.T) {
	err := seed.Ensure(context.Background(), testkit.DB(t), nil, seed.Root{}, now)
	require.Error(t, err)
}
