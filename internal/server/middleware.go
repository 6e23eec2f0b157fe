package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/tenancy/internal/observability/context"
	"github.com/smallbiznis/tenancy/pkg/tenantctx"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"

	sessionCookieName = "_sid"

	contextUserIDKey    = "user_id"
	contextSessionIDKey = "session_id"
)

// Identity trusts the caller id forwarded by the authenticating proxy in
// front of this service.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		userID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || userID <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Request = c.Request.WithContext(tenantctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// Session reads the session id from the cookie or header and issues a new
// one when the request carries none.
func Session(ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(sid) == "" {
			sid = strings.TrimSpace(c.GetHeader(HeaderSessionID))
		}
		if sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookieName, sid, int(ttl.Seconds()), "/", "", secure, true)
		}
		c.Header(HeaderSessionID, sid)

		c.Set(contextSessionIDKey, sid)
		c.Request = c.Request.WithContext(obscontext.WithSessionID(c.Request.Context(), sid))
		c.Next()
	}
}

// QueryTimeout bounds the store work a single request may trigger.
func QueryTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func userIDFrom(c *gin.Context) int64 {
	return c.GetInt64(contextUserIDKey)
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(contextSessionIDKey)
}
