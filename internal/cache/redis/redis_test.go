package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysAreNamespaced(t *testing.T) {
	for _, k := range []string{listingsKey(), listingsBuiltKey(), lockKey("checkout:1"), rateLimitKey("auth:1.2.3.4")} {
		assert.True(t, strings.HasPrefix(k, namespace+":"), k)
	}
	assert.Equal(t, "mart:lock:checkout:1", lockKey("checkout:1"))
	assert.Equal(t, "mart:listings:built", listingsBuiltKey())
}

func TestClientOptions(t *testing.T) {
	opts := ClientConfig{Addr: "cache.internal:6380", PoolSize: 7}.options()
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Nil(t, opts.TLSConfig)

	opts = ClientConfig{Addr: "cache.internal:6380", TLSEnabled: true}.options()
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, "cache.internal", opts.TLSConfig.ServerName)
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("mart:*"))
	assert.True(t, hasPattern("mart:[od]*"))
	assert.False(t, hasPattern("mart:orders"))
}

func TestSlidingWindowScriptEmbedded(t *testing.T) {
	assert.Contains(t, slidingWindowLua, "ZREMRANGEBYSCORE")
	assert.Contains(t, slidingWindowLua, "ZCARD")
}
