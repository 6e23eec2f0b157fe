// Package server exposes the authorization core over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	activetenantdomain "github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/activetenant/manager"
	"github.com/smallbiznis/tenancy/internal/authorization"
	"github.com/smallbiznis/tenancy/internal/config"
	linkedauthorizationdomain "github.com/smallbiznis/tenancy/internal/linkedauthorization/domain"
	"github.com/smallbiznis/tenancy/internal/observability"
	obslogger "github.com/smallbiznis/tenancy/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tenancy/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tenancy/internal/observability/tracing"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	trpdomain "github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	trudomain "github.com/smallbiznis/tenancy/internal/tenantroleuser/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:    p.ObsCfg.Debug(),
		Classify: errorTypeOf,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.Middleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	Log *zap.Logger

	TenantSvc              tenantdomain.Service
	RoleSvc                roledomain.Service
	ActionSvc              actiondomain.Service
	ResourceSvc            resourcedomain.Service
	PermissionSvc          permissiondomain.Service
	TenantRoleSvc          tenantroledomain.Service
	TenantRolePermission   trpdomain.Service
	TenantRoleUser         trudomain.Service
	LinkedAuthorizationSvc linkedauthorizationdomain.Service
	ActiveTenantSvc        activetenantdomain.Service

	Resolver *authorization.Resolver
	Sessions *manager.Manager
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	tenantSvc              tenantdomain.Service
	roleSvc                roledomain.Service
	actionSvc              actiondomain.Service
	resourceSvc            resourcedomain.Service
	permissionSvc          permissiondomain.Service
	tenantRoleSvc          tenantroledomain.Service
	tenantRolePermission   trpdomain.Service
	tenantRoleUser         trudomain.Service
	linkedAuthorizationSvc linkedauthorizationdomain.Service
	activeTenantSvc        activetenantdomain.Service

	resolver *authorization.Resolver
	sessions *manager.Manager
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:                 p.Gin,
		cfg:                    p.Cfg,
		log:                    p.Log.Named("http.server"),
		tenantSvc:              p.TenantSvc,
		roleSvc:                p.RoleSvc,
		actionSvc:              p.ActionSvc,
		resourceSvc:            p.ResourceSvc,
		permissionSvc:          p.PermissionSvc,
		tenantRoleSvc:          p.TenantRoleSvc,
		tenantRolePermission:   p.TenantRolePermission,
		tenantRoleUser:         p.TenantRoleUser,
		linkedAuthorizationSvc: p.LinkedAuthorizationSvc,
		activeTenantSvc:        p.ActiveTenantSvc,
		resolver:               p.Resolver,
		sessions:               p.Sessions,
	}

	svc.registerAPIRoutes()
	svc.registerSessionRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(QueryTimeout(s.cfg.DBQueryTimeout))

	// -------- Entities --------
	tenants := registerEntity[tenantdomain.Tenant, tenantdomain.Filter, tenantdomain.Request](api, "/tenants", s.tenantSvc)
	tenants.GET("/:id/children", s.ListTenantChildren)

	registerEntity[roledomain.Role, roledomain.Filter, roledomain.Request](api, "/roles", s.roleSvc)
	registerEntity[actiondomain.Action, actiondomain.Filter, actiondomain.Request](api, "/actions", s.actionSvc)
	registerEntity[resourcedomain.Resource, resourcedomain.Filter, resourcedomain.Request](api, "/resources", s.resourceSvc)

	// the static route takes precedence over /:id
	api.GET("/permissions/id", s.GetPermissionID)
	registerEntity[permissiondomain.Permission, permissiondomain.Filter, permissiondomain.Request](api, "/permissions", s.permissionSvc)

	// -------- Associations --------
	tenantRoles := registerEntity[tenantroledomain.TenantRole, tenantroledomain.Filter, tenantroledomain.Request](api, "/tenant-roles", s.tenantRoleSvc)
	tenantRoles.GET("/user-roles", s.ListUserRoles)

	trp := registerEntity[trpdomain.TenantRolePermission, trpdomain.Filter, trpdomain.Request](api, "/tenant-role-permissions", s.tenantRolePermission)
	trp.POST("/assign", s.AssignPermission)
	trp.POST("/unassign", s.UnassignPermission)

	tru := registerEntity[trudomain.TenantRoleUser, trudomain.Filter, trudomain.Request](api, "/tenant-role-users", s.tenantRoleUser)
	tru.POST("/assign", s.AssignUser)
	tru.POST("/unassign", s.UnassignUser)
	tru.GET("/user-ids", s.ListTenantUserIDs)
	tru.GET("/tenant-ids", s.ListUserTenantIDs)

	registerEntity[linkedauthorizationdomain.LinkedAuthorization, linkedauthorizationdomain.Filter, linkedauthorizationdomain.Request](api, "/linked-authorizations", s.linkedAuthorizationSvc)
	registerEntity[activetenantdomain.ActiveTenant, activetenantdomain.Filter, activetenantdomain.Request](api, "/active-tenants", s.activeTenantSvc)

	// -------- Authorization --------
	api.GET("/authorization/check", s.CheckPermission)
}

func (s *Server) registerSessionRoutes() {
	session := s.engine.Group("/api/v1/session")
	session.Use(QueryTimeout(s.cfg.DBQueryTimeout))
	session.Use(Identity())
	session.Use(Session(s.cfg.Session.TTL, s.cfg.Session.CookieSecure))

	session.POST("/tenant/init", s.InitSessionTenant)
	session.GET("/tenant", s.GetSessionTenant)
	session.PUT("/tenant", s.SwitchSessionTenant)
	session.DELETE("/tenant", s.DeactivateSessionTenant)
	session.GET("/tenants", s.ListSessionTenants)
}
