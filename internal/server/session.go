package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/activetenant/manager"
	"github.com/smallbiznis/tenancy/pkg/tenantctx"
)

type switchTenantRequest struct {
	TenantName string `json:"tenantName"`
}

func (s *Server) InitSessionTenant(c *gin.Context) {
	state, err := s.sessions.Init(c.Request.Context(), sessionIDFrom(c), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	withActiveTenant(c, state)
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) GetSessionTenant(c *gin.Context) {
	state, err := s.sessions.ActiveTenant(c.Request.Context(), sessionIDFrom(c), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	withActiveTenant(c, state)
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) SwitchSessionTenant(c *gin.Context) {
	var req switchTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	state, err := s.sessions.SwitchTo(c.Request.Context(), sessionIDFrom(c), userIDFrom(c), req.TenantName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	withActiveTenant(c, state)
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) DeactivateSessionTenant(c *gin.Context) {
	state, err := s.sessions.Deactivate(c.Request.Context(), sessionIDFrom(c), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) ListSessionTenants(c *gin.Context) {
	names, err := s.sessions.UserTenants(c.Request.Context(), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": names})
}

// withActiveTenant puts the resolved tenant on the request context so the
// access log line carries it.
func withActiveTenant(c *gin.Context, state *manager.SessionState) {
	if !state.IsTenantActive() {
		return
	}
	c.Request = c.Request.WithContext(tenantctx.WithTenantID(c.Request.Context(), state.TenantID.Int64()))
}
