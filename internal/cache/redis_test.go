package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallbiznis/tenancy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewRedisClientDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	client := NewRedisClient(lc, config.Config{}, zap.NewNop())
	assert.Nil(t, client)
	lc.RequireStart().RequireStop()
}

func TestNewRedisClientConnects(t *testing.T) {
	srv := miniredis.RunT(t)

	lc := fxtest.NewLifecycle(t)
	client := NewRedisClient(lc, config.Config{Redis: config.RedisConfig{Addr: srv.Addr()}}, zap.NewNop())
	require.NotNil(t, client)

	lc.RequireStart()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	srv.CheckGet(t, "k", "v")
	lc.RequireStop()
}
