// Package cache 提供可选的 Redis 查询缓存。
//
// 缓存键由查询内容与凭证摘要共同派生，携带不同凭证的请求永远不会
// 命中彼此的条目；缓存值是序列化后的响应体，不包含任何密钥字段。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/rag-chat/pkg/utils/json"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultKeyPrefix = "ragchat:query:"
)

// Config 查询缓存配置。
type Config struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// Addr Redis 地址（host:port）。
	Addr string
	// Password Redis 密码。
	Password string
	// DB Redis 数据库编号。
	DB int
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// Key 唯一标识一次可缓存的问答。
type Key struct {
	// Query 用户问题原文。
	Query string
	// Provider LLM 提供商名称。
	Provider string
	// Model 生成模型名称。
	Model string
	// StoreType 向量库类型。
	StoreType string
	// Index 目标集合/索引名。
	Index string
	// CredentialDigest 凭证摘要，见包级 CredentialDigest。
	CredentialDigest string
}

// CredentialDigest 计算凭证材料的 SHA-256 摘要。摘要参与缓存键派生，
// 凭证原文不会被存储或记录。
func CredentialDigest(secrets ...string) string {
	h := sha256.New()
	for _, s := range secrets {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// QueryCache 查询结果缓存。
type QueryCache struct {
	redis *goredis.Client
	cfg   *Config
}

// New 创建查询缓存实例。未启用时返回的实例所有操作均为空操作，
// Get 恒定未命中。
func New(cfg *Config) *QueryCache {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}

	c := &QueryCache{cfg: cfg}
	if cfg.Enabled {
		c.redis = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}
	return c
}

// Enabled 报告缓存是否启用。
func (c *QueryCache) Enabled() bool {
	return c.cfg.Enabled && c.redis != nil
}

// Ping 检查 Redis 连通性。未启用时直接返回 nil。
func (c *QueryCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// cacheKey 基于 Key 各字段生成缓存键（SHA-256 哈希）。
func (c *QueryCache) cacheKey(key Key) string {
	h := sha256.New()
	parts := []string{key.Query, key.Provider, key.Model, key.StoreType, key.Index, key.CredentialDigest}
	for _, part := range parts {
		h.Write([]byte(part))
		// 字段间写入 0 字节分隔，避免拼接歧义
		h.Write([]byte{0})
	}
	return c.cfg.KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get 从缓存获取序列化的响应。未命中返回 (nil, nil)；损坏的条目
// 会被删除并按未命中处理。日志只记录键哈希，不记录问题原文。
func (c *QueryCache) Get(ctx context.Context, key Key) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}

	cacheKey := c.cacheKey(key)

	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("cache miss", "key", cacheKey)
			return nil, nil
		}
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", cacheKey)
		return nil, err
	}

	if !json.Valid(data) {
		// 删除损坏的缓存条目
		logger.Warnw("corrupt cache entry, deleting", "key", cacheKey)
		_ = c.redis.Del(ctx, cacheKey).Err()
		return nil, nil
	}

	logger.Infow("cache hit", "key", cacheKey, "size", len(data))
	return data, nil
}

// Set 将序列化的响应写入缓存。
func (c *QueryCache) Set(ctx context.Context, key Key, data []byte) error {
	if !c.Enabled() {
		return nil
	}

	cacheKey := c.cacheKey(key)

	if err := c.redis.Set(ctx, cacheKey, data, c.cfg.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", cacheKey)
		return err
	}

	logger.Debugw("cached chat response", "key", cacheKey, "ttl", c.cfg.TTL)
	return nil
}

// Clear 清除所有查询缓存条目。
func (c *QueryCache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	// 使用 SCAN 遍历匹配的键，逐个删除
	pattern := c.cfg.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deleted++
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
		return err
	}

	logger.Infow("cleared query cache", "deleted_count", deleted)
	return nil
}

// Stats 返回缓存统计信息。
func (c *QueryCache) Stats(ctx context.Context) (map[string]any, error) {
	if !c.Enabled() {
		return map[string]any{"enabled": false}, nil
	}

	pattern := c.cfg.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]any{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.cfg.TTL.String(),
		"key_prefix": c.cfg.KeyPrefix,
	}, nil
}

// Close 关闭底层 Redis 连接。
func (c *QueryCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
