package cache

import "questhub/internal/errors"

// 预定义错误
var (
	ErrCacheNotFound      = errors.New(3001, "cache key not found", 404)
	ErrCacheConnection    = errors.New(3003, "cache connection failed", 500)
	ErrCacheSerialization = errors.New(3004, "cache serialization failed", 500)
	ErrCacheInvalidConfig = errors.New(3005, "cache invalid config", 500)
	ErrCacheOperation     = errors.New(3006, "cache operation failed", 500)
)
