package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetPermissionID(c *gin.Context) {
	resource := strings.TrimSpace(c.Query("resource"))
	action := strings.TrimSpace(c.Query("action"))

	id, err := s.resolver.GetIDByActionAndResource(c.Request.Context(), resource, action)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}})
}

func (s *Server) CheckPermission(c *gin.Context) {
	userID, ok := queryUserID(c, "userId")
	if !ok {
		return
	}
	tenantID, ok := queryID(c, "tenantId")
	if !ok {
		return
	}

	allowed, err := s.resolver.HasPermission(c.Request.Context(), userID, tenantID, c.Query("action"), c.Query("resource"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"allowed": allowed}})
}
