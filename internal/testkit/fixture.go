package testkit

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	trpdomain "github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	trudomain "github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	"gorm.io/gorm"
)

// Fixture seeds tenants, roles and grants straight into the store.
type Fixture struct {
	t    testing.TB
	DB   *gorm.DB
	Node *snowflake.Node
	Now  time.Time

	actions   map[actiondomain.ActionType]*actiondomain.Action
	resources map[string]*resourcedomain.Resource
}

func NewFixture(t testing.TB, conn *gorm.DB) *Fixture {
	return &Fixture{
		t:         t,
		DB:        conn,
		Node:      Node(t),
		Now:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		actions:   map[actiondomain.ActionType]*actiondomain.Action{},
		resources: map[string]*resourcedomain.Resource{},
	}
}

func (f *Fixture) Tenant(name string) *tenantdomain.Tenant {
	row := &tenantdomain.Tenant{
		ID:        f.Node.Generate(),
		Name:      name,
		Key:       name,
		Type:      tenantdomain.TenantTypeClient,
		CreatedAt: f.Now,
		UpdatedAt: f.Now,
	}
	Seed(f.t, f.DB, row)
	return row
}

func (f *Fixture) Role(name string) *roledomain.Role {
	row := &roledomain.Role{ID: f.Node.Generate(), Name: name, CreatedAt: f.Now, UpdatedAt: f.Now}
	Seed(f.t, f.DB, row)
	return row
}

func (f *Fixture) Action(action actiondomain.ActionType) *actiondomain.Action {
	if row, ok := f.actions[action]; ok {
		return row
	}
	row := &actiondomain.Action{ID: f.Node.Generate(), Name: string(action), Type: action, CreatedAt: f.Now, UpdatedAt: f.Now}
	Seed(f.t, f.DB, row)
	f.actions[action] = row
	return row
}

func (f *Fixture) Resource(name string) *resourcedomain.Resource {
	if row, ok := f.resources[name]; ok {
		return row
	}
	row := &resourcedomain.Resource{ID: f.Node.Generate(), Name: name, CreatedAt: f.Now, UpdatedAt: f.Now}
	Seed(f.t, f.DB, row)
	f.resources[name] = row
	return row
}

// Permission seeds the permission pairing action and resource, seeding
// either of them on first use.
func (f *Fixture) Permission(action actiondomain.ActionType, resource string) *permissiondomain.Permission {
	a := f.Action(action)
	r := f.Resource(resource)
	p := &permissiondomain.Permission{
		ID:         f.Node.Generate(),
		Name:       string(action) + ":" + resource,
		ActionID:   a.ID,
		ResourceID: r.ID,
		CreatedAt:  f.Now,
		UpdatedAt:  f.Now,
	}
	Seed(f.t, f.DB, p)
	return p
}

func (f *Fixture) TenantRole(tenant *tenantdomain.Tenant, role *roledomain.Role) *tenantroledomain.TenantRole {
	row := &tenantroledomain.TenantRole{ID: f.Node.Generate(), TenantID: tenant.ID, RoleID: role.ID, CreatedAt: f.Now}
	Seed(f.t, f.DB, row)
	return row
}

func (f *Fixture) Attach(tr *tenantroledomain.TenantRole, p *permissiondomain.Permission) *trpdomain.TenantRolePermission {
	row := &trpdomain.TenantRolePermission{ID: f.Node.Generate(), TenantRoleID: tr.ID, PermissionID: p.ID, CreatedAt: f.Now}
	Seed(f.t, f.DB, row)
	return row
}

func (f *Fixture) Member(tr *tenantroledomain.TenantRole, userID int64) *trudomain.TenantRoleUser {
	row := &trudomain.TenantRoleUser{ID: f.Node.Generate(), TenantRoleID: tr.ID, UserID: userID, CreatedAt: f.Now}
	Seed(f.t, f.DB, row)
	return row
}
