package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/query"
)

// The helpers below abort the request with invalid_argument naming the
// offending parameter and report false when the handler must return.

func parseID(value string) (snowflake.ID, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (snowflake.ID, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		AbortWithError(c, invalidRequestError(name))
	}
	return id, ok
}

func queryID(c *gin.Context, name string) (snowflake.ID, bool) {
	id, ok := parseID(c.Query(name))
	if !ok {
		AbortWithError(c, invalidRequestError(name))
	}
	return id, ok
}

// optionalQueryID yields nil when the parameter is absent.
func optionalQueryID(c *gin.Context, name string) (*snowflake.ID, bool) {
	if strings.TrimSpace(c.Query(name)) == "" {
		return nil, true
	}
	id, ok := queryID(c, name)
	if !ok {
		return nil, false
	}
	return &id, true
}

// queryUserID reads an external user id, which is a positive integer.
func queryUserID(c *gin.Context, name string) (int64, bool) {
	userID, err := strconv.ParseInt(strings.TrimSpace(c.Query(name)), 10, 64)
	if err != nil || userID <= 0 {
		AbortWithError(c, invalidRequestError(name))
		return 0, false
	}
	return userID, true
}

// bindPage fills page from the query string. An absent page number means the
// first page and an absent size the default page size; explicit values are
// passed through so the query layer can reject them.
func bindPage(c *gin.Context, page *query.Page) bool {
	if err := c.ShouldBindQuery(page); err != nil {
		AbortWithError(c, invalidRequestError("page"))
		return false
	}
	if _, ok := c.GetQuery("page"); !ok {
		page.PageNo = 1
	}
	if _, ok := c.GetQuery("size"); !ok {
		page.PageSize = query.DefaultPageSize
	}
	return true
}
