package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("ENVIRONMENT", "development")

	cfg := Load()
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Session.CookieSecure)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("AUTHZ_CACHE_TTL", "2m")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 90*time.Second, cfg.Session.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Authz.CacheTTL)
	assert.True(t, cfg.Session.CookieSecure)
	assert.False(t, cfg.IsDevelopment())
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("X_FLAG", "yes")
	assert.True(t, getenvBool("X_FLAG", false))
	t.Setenv("X_FLAG", "bogus")
	assert.True(t, getenvBool("X_FLAG", true))
}
