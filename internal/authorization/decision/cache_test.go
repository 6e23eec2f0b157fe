package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheHitAndPurge(t *testing.T) {
	c := NewWithSize(8, time.Minute)
	key := Key{UserID: 5, TenantID: 1, Action: "READ", Resource: "tenant"}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Add(key, true)
	allowed, ok := c.Get(key)
	assert.True(t, ok)
	assert.True(t, allowed)

	c.Purge()
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDisabledCacheNeverHits(t *testing.T) {
	for _, c := range []*Cache{nil, NewWithSize(0, time.Minute)} {
		c.Add(Key{UserID: 1}, true)
		_, ok := c.Get(Key{UserID: 1})
		assert.False(t, ok)
		assert.Zero(t, c.Len())
		c.Purge()
	}
}
