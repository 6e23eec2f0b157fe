package tenantctx

import (
	"context"
	"testing"
)

func TestTenantAndUser(t *testing.T) {
	ctx := context.Background()
	if _, ok := TenantID(ctx); ok {
		t.Fatalf("expected no tenant on empty context")
	}

	ctx = WithUserID(WithTenantID(ctx, 42), 5)
	if id, ok := TenantID(ctx); !ok || id != 42 {
		t.Fatalf("expected tenant 42, got %d (%v)", id, ok)
	}
	if id, ok := UserID(ctx); !ok || id != 5 {
		t.Fatalf("expected user 5, got %d (%v)", id, ok)
	}
}
