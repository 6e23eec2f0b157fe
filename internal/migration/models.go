package migration

import (
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	activetenantdomain "github.com/smallbiznis/tenancy/internal/activetenant/domain"
	linkedauthorizationdomain "github.com/smallbiznis/tenancy/internal/linkedauthorization/domain"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	trpdomain "github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	trudomain "github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&tenantdomain.Tenant{},
		&roledomain.Role{},
		&actiondomain.Action{},
		&resourcedomain.Resource{},
		&permissiondomain.Permission{},
		&tenantroledomain.TenantRole{},
		&trpdomain.TenantRolePermission{},
		&trudomain.TenantRoleUser{},
		&linkedauthorizationdomain.LinkedAuthorization{},
		&activetenantdomain.ActiveTenant{},
	}
}

const activeTenantIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_active_tenants_user_active ON active_tenants (user_id) WHERE is_active`

// AutoMigrate builds the schema from the models. It serves sqlite and mysql
// deployments and tests; postgres goes through the versioned migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	// mysql has no partial indexes; the switch path keeps the flag unique there
	if db.Dialector.Name() == "mysql" {
		return nil
	}
	return db.Exec(activeTenantIndex).Error
}
