// Package authorization answers whether a user holds a permission within a
// tenant by walking the grant associations.
package authorization

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/apperror"
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	trpdomain "github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	trudomain "github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	outcomeAllow = "allow"
	outcomeDeny  = "deny"

	sourceCache = "cache"
	sourceStore = "store"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Permissions permissiondomain.Service
	TenantRoles tenantroledomain.Service
	Grants      trpdomain.Service
	Members     trudomain.Service
	Decisions   *decision.Cache  `optional:"true"`
	Metrics     *metrics.Metrics `optional:"true"`
}

// Resolver does not inherit grants along the tenant tree. A caller wanting
// that walks the parent chain and asks once per ancestor.
type Resolver struct {
	log         *zap.Logger
	permissions permissiondomain.Service
	tenantRoles tenantroledomain.Service
	grants      trpdomain.Service
	members     trudomain.Service
	decisions   *decision.Cache
	metrics     *metrics.Metrics
}

func NewResolver(p Params) *Resolver {
	return &Resolver{
		log:         p.Log.Named("authorization.resolver"),
		permissions: p.Permissions,
		tenantRoles: p.TenantRoles,
		grants:      p.Grants,
		members:     p.Members,
		decisions:   p.Decisions,
		metrics:     p.Metrics,
	}
}

// HasPermission is true iff some role granted to the tenant carries the
// permission named by action and resource and is held by the user. An
// unknown action and resource pair is NotFound.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, tenantID snowflake.ID, actionName, resourceName string) (bool, error) {
	actionName = strings.TrimSpace(actionName)
	resourceName = strings.TrimSpace(resourceName)
	switch {
	case userID == 0:
		return false, apperror.MissingField(permissiondomain.Entity, "userId")
	case tenantID == 0:
		return false, apperror.MissingField(permissiondomain.Entity, "tenantId")
	case actionName == "":
		return false, apperror.MissingField(permissiondomain.Entity, "action")
	case resourceName == "":
		return false, apperror.MissingField(permissiondomain.Entity, "resource")
	}

	key := decision.Key{UserID: userID, TenantID: tenantID, Action: actionName, Resource: resourceName}
	if allowed, ok := r.decisions.Get(key); ok {
		r.record(ctx, key, allowed, sourceCache)
		return allowed, nil
	}

	permissionID, err := r.permissions.GetIDByActionAndResource(ctx, resourceName, actionName)
	if err != nil {
		return false, err
	}
	allowed, err := r.granted(ctx, userID, tenantID, permissionID)
	if err != nil {
		return false, err
	}

	r.decisions.Add(key, allowed)
	r.record(ctx, key, allowed, sourceStore)
	return allowed, nil
}

func (r *Resolver) GetIDByActionAndResource(ctx context.Context, resourceName, actionName string) (snowflake.ID, error) {
	return r.permissions.GetIDByActionAndResource(ctx, resourceName, actionName)
}

func (r *Resolver) granted(ctx context.Context, userID int64, tenantID, permissionID snowflake.ID) (bool, error) {
	tenantRoles, err := r.tenantRoles.Find(ctx, tenantroledomain.Filter{TenantID: &tenantID, LogicConjunction: true})
	if err != nil {
		return false, err
	}
	for i := range tenantRoles {
		tenantRoleID := tenantRoles[i].ID

		grants, err := r.grants.Find(ctx, trpdomain.Filter{
			TenantRoleID:     &tenantRoleID,
			PermissionID:     &permissionID,
			LogicConjunction: true,
		})
		if err != nil {
			return false, err
		}
		if len(grants) == 0 {
			continue
		}

		members, err := r.members.Find(ctx, trudomain.Filter{
			TenantRoleID:     &tenantRoleID,
			UserID:           &userID,
			LogicConjunction: true,
		})
		if err != nil {
			return false, err
		}
		if len(members) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) record(ctx context.Context, key decision.Key, allowed bool, source string) {
	outcome := outcomeDeny
	if allowed {
		outcome = outcomeAllow
	}
	r.metrics.RecordAuthzDecision(ctx, outcome, source)
	r.log.Debug("authorization decision",
		zap.Int64("user_id", key.UserID),
		zap.Int64("tenant_id", key.TenantID.Int64()),
		zap.String("action", key.Action),
		zap.String("resource", key.Resource),
		zap.String("outcome", outcome),
		zap.String("source", source),
	)
}
