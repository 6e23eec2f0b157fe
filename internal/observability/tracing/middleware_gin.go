package tracing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/tenancy/internal/observability/context"
	"github.com/smallbiznis/tenancy/pkg/tenantctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/smallbiznis/tenancy/http"

// GinMiddleware opens a server span per request, continuing any trace the
// caller propagated. The span is renamed to the matched route once known and
// tagged with the caller identity and session.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		reqCtx := c.Request.Context()
		if route := c.FullPath(); route != "" {
			span.SetName(c.Request.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.Int("http.response.status_code", c.Writer.Status()),
		)
		if id := obscontext.RequestIDFromContext(reqCtx); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if id := obscontext.SessionIDFromContext(reqCtx); id != "" {
			span.SetAttributes(attribute.String("session.id", id))
		}
		if userID, ok := tenantctx.UserID(reqCtx); ok {
			span.SetAttributes(attribute.Int64("enduser.id", userID))
		}

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		if last := c.Errors.Last(); last != nil {
			span.RecordError(SafeError(last.Err))
		}
		span.SetStatus(codes.Error, http.StatusText(c.Writer.Status()))
	}
}

// SafeError keeps only the first line of err so driver detail lines carrying
// bound values stay out of span events.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return errors.New(msg)
}
