// Package decision memoizes permission decisions. Any write to a grant
// association purges the whole cache.
package decision

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/smallbiznis/tenancy/internal/config"
	"go.uber.org/fx"
)

type Key struct {
	UserID   int64
	TenantID snowflake.ID
	Action   string
	Resource string
}

// Cache is safe for concurrent use. A nil Cache, or one built with a zero
// size, never hits.
type Cache struct {
	lru *expirable.LRU[Key, bool]
}

type Params struct {
	fx.In

	Config config.Config
}

func New(p Params) *Cache {
	return NewWithSize(p.Config.Authz.CacheSize, p.Config.Authz.CacheTTL)
}

func NewWithSize(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		return &Cache{}
	}
	return &Cache{lru: expirable.NewLRU[Key, bool](size, nil, ttl)}
}

func (c *Cache) Get(key Key) (allowed bool, ok bool) {
	if c == nil || c.lru == nil {
		return false, false
	}
	return c.lru.Get(key)
}

func (c *Cache) Add(key Key, allowed bool) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(key, allowed)
}

func (c *Cache) Purge() {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Purge()
}

func (c *Cache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

var Module = fx.Module("authorization.decision",
	fx.Provide(New),
)
