package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache 基于 miniredis 构建启用状态的缓存实例。
func newTestCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(&Config{
		Enabled: true,
		Addr:    mr.Addr(),
		TTL:     time.Minute,
	})
	return c, mr
}

func TestCredentialDigest(t *testing.T) {
	d1 := CredentialDigest("sk-a", "vk-b")
	d2 := CredentialDigest("sk-a", "vk-b")
	d3 := CredentialDigest("sk-a", "vk-c")

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 64)
	// 摘要不包含凭证原文
	assert.NotContains(t, d1, "sk-a")
}

func TestCacheKeyDerivation(t *testing.T) {
	c := New(&Config{})

	base := Key{
		Query:            "什么是向量检索",
		Provider:         "openai",
		Model:            "gpt-3.5-turbo",
		StoreType:        "qdrant",
		Index:            "docs",
		CredentialDigest: CredentialDigest("sk-a"),
	}
	k1 := c.cacheKey(base)

	// 确定性
	assert.Equal(t, k1, c.cacheKey(base))
	assert.True(t, strings.HasPrefix(k1, defaultKeyPrefix))

	// 任意字段变化都会派生出不同的键
	variants := []func(k *Key){
		func(k *Key) { k.Query = "另一个问题" },
		func(k *Key) { k.Provider = "ollama" },
		func(k *Key) { k.Model = "gpt-4" },
		func(k *Key) { k.StoreType = "milvus" },
		func(k *Key) { k.Index = "other" },
		func(k *Key) { k.CredentialDigest = CredentialDigest("sk-b") },
	}
	for _, mutate := range variants {
		v := base
		mutate(&v)
		assert.NotEqual(t, k1, c.cacheKey(v))
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := New(&Config{Enabled: false})

	assert.False(t, c.Enabled())

	data, err := c.Get(context.Background(), Key{Query: "q"})
	assert.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, c.Set(context.Background(), Key{Query: "q"}, []byte(`{}`)))
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Clear(context.Background()))
	assert.NoError(t, c.Close())
}

func TestGetSetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	key := Key{
		Query:            "什么是向量检索",
		Provider:         "openai",
		Model:            "gpt-3.5-turbo",
		StoreType:        "qdrant",
		Index:            "docs",
		CredentialDigest: CredentialDigest("sk-a", "vk-a"),
	}
	payload := []byte(`{"response":"向量检索是……","sources":[]}`)

	// 初始未命中
	data, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, key, payload))

	data, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// 不同凭证摘要不共享条目
	other := key
	other.CredentialDigest = CredentialDigest("sk-b", "vk-a")
	data, err = c.Get(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEntryExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	key := Key{Query: "q", Provider: "openai"}

	require.NoError(t, c.Set(ctx, key, []byte(`{"response":"a"}`)))

	mr.FastForward(2 * time.Minute)

	data, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCorruptEntryDeleted(t *testing.T) {
	c, mr := newTestCache(t)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	key := Key{Query: "q"}
	cacheKey := c.cacheKey(key)

	// 直接写入非法 JSON，模拟损坏的条目
	require.NoError(t, mr.Set(cacheKey, `{"response": truncat`))

	data, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)

	// 损坏的条目已被删除
	assert.False(t, mr.Exists(cacheKey))
}

func TestClear(t *testing.T) {
	c, mr := newTestCache(t)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	for _, q := range []string{"q1", "q2", "q3"} {
		require.NoError(t, c.Set(ctx, Key{Query: q}, []byte(`{}`)))
	}
	// 前缀之外的键不受 Clear 影响
	require.NoError(t, mr.Set("other:key", "v"))

	require.NoError(t, c.Clear(ctx))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["key_count"])
	assert.True(t, mr.Exists("other:key"))
}

func TestStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c := New(&Config{Enabled: false})
		stats, err := c.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"enabled": false}, stats)
	})

	t.Run("enabled", func(t *testing.T) {
		c, _ := newTestCache(t)
		defer func() { _ = c.Close() }()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, Key{Query: "q1"}, []byte(`{}`)))
		require.NoError(t, c.Set(ctx, Key{Query: "q2"}, []byte(`{}`)))

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, true, stats["enabled"])
		assert.Equal(t, 2, stats["key_count"])
		assert.Equal(t, "1m0s", stats["ttl"])
		assert.Equal(t, defaultKeyPrefix, stats["key_prefix"])
	})
}

func TestPing(t *testing.T) {
	c, mr := newTestCache(t)
	defer func() { _ = c.Close() }()

	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
