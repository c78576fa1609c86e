package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// TokenCache 缓存已验签令牌对应的身份，省掉热路径上的重复验签。
// 缓存键经 ShardRing 打上分片前缀，多实例部署时键空间划分稳定。
type TokenCache struct {
	client radix.Client
	ring   *ShardRing
	ttl    time.Duration
}

// NewTokenCache 构建令牌缓存，client 为空时一切请求都当未命中
func NewTokenCache(client radix.Client, ring *ShardRing, ttl time.Duration) *TokenCache {
	if ring == nil {
		ring = NewShardRing(nil, 0)
	}
	if ttl < time.Minute {
		ttl = 10 * time.Minute
	}
	return &TokenCache{client: client, ring: ring, ttl: ttl}
}

// 缓存键只存令牌摘要，原始令牌不落 redis
func (c *TokenCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("auth:token:%s:%s", c.ring.Locate(token), hex.EncodeToString(sum[:16]))
}

// Get 查缓存的身份，缓存损坏时清掉该键并按未命中处理
func (c *TokenCache) Get(ctx context.Context, token string) (*Claims, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	k := c.key(token)
	var raw []byte
	if err := c.client.Do(radix.Cmd(&raw, "GET", k)); err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		_ = c.client.Do(radix.Cmd(nil, "DEL", k))
		return nil, false, nil
	}
	return &claims, true, nil
}

// Set 写入解析结果，过期由 redis TTL 负责
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) error {
	if c.client == nil || claims == nil {
		return nil
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return c.client.Do(radix.FlatCmd(nil, "SETEX", c.key(token), int64(c.ttl/time.Second), body))
}
