package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// SingleflightCache 防击穿缓存装饰器
// 内部持有 singleflight.Group，确保同一 key 的并发请求只执行一次
type SingleflightCache struct {
	Cache
	group singleflight.Group
}

// NewSingleflightCache 创建防击穿缓存装饰器
func NewSingleflightCache(c Cache) *SingleflightCache {
	return &SingleflightCache{Cache: c}
}

// Forget 清除 singleflight 状态，下次请求会重新执行 fn
func (s *SingleflightCache) Forget(key string) {
	s.group.Forget(key)
}

// Remember 读穿透缓存操作
// 命中直接返回，未命中执行 fn 并回填
func Remember[T any](
	ctx context.Context,
	c Cache,
	key string,
	ttl time.Duration,
	fn func() (T, error),
) (T, error) {
	var result T
	if err := c.Get(ctx, key, &result); err == nil {
		return result, nil
	}
	result, err := fn()
	if err != nil {
		return result, err
	}
	_ = c.Set(ctx, key, result, ttl)
	return result, nil
}

// RememberWithLock 带防击穿的读穿透缓存操作
// 使用 singleflight 确保同一 key 的多个并发请求只执行一次 fn
func RememberWithLock[T any](
	ctx context.Context,
	sf *SingleflightCache,
	key string,
	ttl time.Duration,
	fn func() (T, error),
) (T, error) {
	v, err, _ := sf.group.Do(key, func() (any, error) {
		return Remember(ctx, sf.Cache, key, ttl, fn)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		var zero T
		return zero, ErrCacheSerialization.WithMessage("invalid result type")
	}
	return result, nil
}
