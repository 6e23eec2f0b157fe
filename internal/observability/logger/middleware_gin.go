package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/tenancy/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const RequestIDHeader = "X-Request-Id"

// ErrorClassifier names the failure kind of a handler error for the access log.
type ErrorClassifier func(err error) string

type MiddlewareConfig struct {
	// Debug also logs the raw handler error.
	Debug    bool
	Classify ErrorClassifier
}

// GinMiddleware tags the request with an id (taken from the caller or a new
// ULID) and writes one access line per request after the handlers ran.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if last := c.Errors.Last(); last != nil {
			if cfg.Classify != nil {
				fields = append(fields, zap.String("error_type", cfg.Classify(last.Err)))
			}
			if cfg.Debug {
				fields = append(fields, zap.Error(last.Err))
			}
		}

		// derived after c.Next to pick up identity set by later middleware
		log := FromContext(c.Request.Context())
		if ce := log.Check(accessLevel(route, status), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func accessLevel(route string, status int) zapcore.Level {
	switch {
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case status >= 500:
		return zapcore.ErrorLevel
	case status == 409 || status == 503:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
