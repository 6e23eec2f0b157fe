package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/internal/tenant/repository"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn := testkit.DB(t)
	clk := clock.NewFakeClock(epoch)
	svc := New(Params{
		DB:     conn,
		Log:    testkit.Logger(t),
		GenID:  testkit.Node(t),
		Repo:   repository.Provide(),
		Unique: testkit.Validator(t),
		Clock:  clk,
	})
	return svc, conn, clk
}

func createRoot(t *testing.T, svc domain.Service) *domain.Tenant {
	t.Helper()
	root, err := svc.Create(context.Background(), domain.Request{Name: "Root", Key: "root", Type: domain.TenantTypeRoot})
	require.NoError(t, err)
	return root
}

func TestCreateRequiresMandatoryFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Request{Key: "k", Type: domain.TenantTypeRoot})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name")

	_, err = svc.Create(ctx, domain.Request{Name: "n", Type: domain.TenantTypeRoot})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "key")

	_, err = svc.Create(ctx, domain.Request{Name: "n", Key: "k"})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "type")
}

func TestCreateRejectsInvertedValidity(t *testing.T) {
	svc, _, _ := newTestService(t)
	start := epoch
	end := epoch.Add(-time.Hour)

	_, err := svc.Create(context.Background(), domain.Request{Name: "n", Key: "k", Type: domain.TenantTypeRoot, Start: &start, End: &end})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestOnlyOneRoot(t *testing.T) {
	svc, _, _ := newTestService(t)
	root := createRoot(t, svc)

	_, err := svc.Create(context.Background(), domain.Request{Name: "Other", Key: "other", Type: domain.TenantTypeRoot})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)

	// updating the existing root does not count itself
	_, err = svc.Update(context.Background(), root.ID, domain.Request{Name: "Root 2", Key: "root", Type: domain.TenantTypeRoot})
	require.NoError(t, err)
}

func TestTypeHierarchyRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	_, err := svc.Create(ctx, domain.Request{Name: "Orphan", Key: "orphan", Type: domain.TenantTypeClient})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)

	missing := snowflake.ID(999)
	_, err = svc.Create(ctx, domain.Request{Name: "Lost", Key: "lost", Type: domain.TenantTypeClient, ParentID: &missing})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	client, err := svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.Request{Name: "Dept", Key: "dept", Type: domain.TenantTypeSub, ParentID: &client.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument, "SUB without client")

	sub, err := svc.Create(ctx, domain.Request{Name: "Dept", Key: "dept", Type: domain.TenantTypeSub, ParentID: &client.ID, ClientID: &client.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.Request{Name: "Nested", Key: "nested", Type: domain.TenantTypeClient, ParentID: &sub.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument, "CLIENT under SUB")

	_, err = svc.Create(ctx, domain.Request{Name: "Bad", Key: "bad", Type: domain.TenantTypeRoot, ParentID: &root.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestKeyUniqueAndNameUniqueAmongSiblings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	a, err := svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.Request{Name: "Acme 2", Key: "ACME", Type: domain.TenantTypeClient, ParentID: &root.ID})
	var uerr *apperror.UniquenessError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []string{"key"}, uerr.Fields)

	_, err = svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme-2", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []string{"parentId", "name"}, uerr.Fields)

	// same name below a different parent is fine
	_, err = svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme-sub", Type: domain.TenantTypeSub, ParentID: &a.ID, ClientID: &a.ID})
	require.NoError(t, err)

	// original record is untouched by the failed attempts
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Key)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), snowflake.ID(42), domain.Request{Name: "x", Key: "x", Type: domain.TenantTypeRoot})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateRejectsParentCycles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	a, err := svc.Create(ctx, domain.Request{Name: "A", Key: "a", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.Request{Name: "B", Key: "b", Type: domain.TenantTypeClient, ParentID: &a.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, domain.Request{Name: "A", Key: "a", Type: domain.TenantTypeClient, ParentID: &b.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = svc.Update(ctx, a.ID, domain.Request{Name: "A", Key: "a", Type: domain.TenantTypeClient, ParentID: &a.ID})
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	// moving the grandchild up a level is not a cycle
	moved, err := svc.Update(ctx, b.ID, domain.Request{Name: "B", Key: "b", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *moved.ParentID)
}

func TestDeleteRefusesLiveChildren(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	end := epoch.Add(24 * time.Hour)
	child, err := svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme", Type: domain.TenantTypeClient, ParentID: &root.ID, End: &end})
	require.NoError(t, err)

	err = svc.Delete(ctx, root.ID)
	require.ErrorIs(t, err, apperror.ErrReferentialIntegrity)

	clk.Advance(48 * time.Hour)
	require.NoError(t, svc.Delete(ctx, root.ID))

	ok, err := svc.Exists(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	children, err := svc.GetChildren(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestDeleteRefusesRoleGrants(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	require.NoError(t, conn.Exec(`INSERT INTO tenant_roles (id, tenant_id, role_id, created_at) VALUES (?, ?, ?, ?)`, 1, root.ID, 2, epoch).Error)

	err := svc.Delete(ctx, root.ID)
	require.ErrorIs(t, err, apperror.ErrReferentialIntegrity)
}

func TestDeleteRefusesClientDependents(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	client, err := svc.Create(ctx, domain.Request{Name: "Acme", Key: "acme", Type: domain.TenantTypeClient, ParentID: &root.ID})
	require.NoError(t, err)
	end := epoch.Add(24 * time.Hour)
	_, err = svc.Create(ctx, domain.Request{Name: "Dept", Key: "dept", Type: domain.TenantTypeSub, ParentID: &root.ID, ClientID: &client.ID, End: &end})
	require.NoError(t, err)

	err = svc.Delete(ctx, client.ID)
	require.ErrorIs(t, err, apperror.ErrReferentialIntegrity)
	assert.Contains(t, err.Error(), "client")

	clk.Advance(48 * time.Hour)
	require.NoError(t, svc.Delete(ctx, client.ID))
}

func TestDeleteRefusesLinkedAuthorizations(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	require.NoError(t, conn.Exec(`INSERT INTO linked_authorizations (id, tenant_id, role_id, permission_id, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`, 1, root.ID, 2, 3, 5, epoch).Error)

	err := svc.Delete(ctx, root.ID)
	require.ErrorIs(t, err, apperror.ErrReferentialIntegrity)

	ok, err := svc.Exists(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.Delete(context.Background(), snowflake.ID(77)))
	require.ErrorIs(t, svc.Delete(context.Background(), 0), apperror.ErrInvalidArgument)
}

func TestFindAndGetAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	for _, name := range []string{"ToU", "TaC", "ToU2", "Awr"} {
		_, err := svc.Create(ctx, domain.Request{Name: name, Key: name, Type: domain.TenantTypeClient, ParentID: &root.ID})
		require.NoError(t, err)
	}

	name := "To"
	items, err := svc.Find(ctx, domain.Filter{Name: &name, LogicConjunction: true})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	page, err := svc.GetAll(ctx, query.ListRequest{Search: "T%", Page: query.Page{PageNo: 1, PageSize: 1, SortBy: []string{"name"}, Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalResults)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "TaC", page.Results[0].Name)
}
