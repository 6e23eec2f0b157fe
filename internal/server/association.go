package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/query"
)

type permissionAssignment struct {
	TenantID     snowflake.ID `json:"tenantId"`
	RoleID       snowflake.ID `json:"roleId"`
	PermissionID snowflake.ID `json:"permissionId"`
}

type userAssignment struct {
	TenantID snowflake.ID   `json:"tenantId"`
	RoleID   snowflake.ID   `json:"roleId"`
	RoleIDs  []snowflake.ID `json:"roleIds"`
	UserID   int64          `json:"userId"`
}

func (s *Server) ListTenantChildren(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := s.tenantSvc.GetChildren(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUserRoles(c *gin.Context) {
	userID, ok := queryUserID(c, "userId")
	if !ok {
		return
	}
	tenantID, ok := queryID(c, "tenantId")
	if !ok {
		return
	}

	roleNames := c.QueryArray("role")
	if len(roleNames) > 0 {
		ok, err := s.tenantRoleSvc.HasAnyRole(c.Request.Context(), userID, roleNames, tenantID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"hasAnyRole": ok}})
		return
	}

	resp, err := s.tenantRoleSvc.GetRolesForUserTenant(c.Request.Context(), userID, tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignPermission(c *gin.Context) {
	var req permissionAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	resp, err := s.tenantRolePermission.Assign(c.Request.Context(), req.TenantID, req.RoleID, req.PermissionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UnassignPermission(c *gin.Context) {
	var req permissionAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	if err := s.tenantRolePermission.Unassign(c.Request.Context(), req.TenantID, req.RoleID, req.PermissionID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AssignUser(c *gin.Context) {
	var req userAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	resp, err := s.tenantRoleUser.Assign(c.Request.Context(), req.TenantID, req.RoleID, req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UnassignUser(c *gin.Context) {
	var req userAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	roleIDs := req.RoleIDs
	if len(roleIDs) == 0 && req.RoleID != 0 {
		roleIDs = []snowflake.ID{req.RoleID}
	}
	if err := s.tenantRoleUser.Unassign(c.Request.Context(), req.TenantID, roleIDs, req.UserID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListTenantUserIDs(c *gin.Context) {
	tenantID, ok := queryID(c, "tenantId")
	if !ok {
		return
	}
	roleID, ok := optionalQueryID(c, "roleId")
	if !ok {
		return
	}
	var page query.Page
	if !bindPage(c, &page) {
		return
	}

	resp, err := s.tenantRoleUser.GetUserIDs(c.Request.Context(), tenantID, roleID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListUserTenantIDs returns the tenants where the user holds a role.
func (s *Server) ListUserTenantIDs(c *gin.Context) {
	userID, ok := queryUserID(c, "userId")
	if !ok {
		return
	}
	roleID, ok := optionalQueryID(c, "roleId")
	if !ok {
		return
	}

	resp, err := s.tenantRoleUser.GetTenantIDs(c.Request.Context(), userID, roleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
