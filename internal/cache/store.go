package cache

import (
	"context"
	"time"
)

// Store 令牌与账单方目录使用的 KV 缓存，ttl<=0 表示不过期
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
