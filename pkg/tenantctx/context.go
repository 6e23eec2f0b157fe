// Package tenantctx carries the caller identity and the active tenant of the
// current request.
package tenantctx

import "context"

type keyType string

const (
	TenantIDKey keyType = "tenant_id"
	UserIDKey   keyType = "user_id"
)

func WithTenantID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}

func TenantID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(TenantIDKey).(int64)
	return id, ok
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func UserID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}
