package cache

import (
	"fmt"
	"time"
)

// DriverType 驱动类型
type DriverType string

const (
	DriverRedis  DriverType = "redis"
	DriverMemory DriverType = "memory"
)

// Config 缓存配置
type Config struct {
	Driver DriverType // 驱动类型

	Redis  *RedisConfig  // Redis 配置
	Memory *MemoryConfig // Memory 配置

	Serializer Serializer    // 序列化器
	KeyPrefix  string        // 键前缀（避免冲突）
	DefaultTTL time.Duration // 默认 TTL
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string        // 地址
	Username     string        // 用户名（Redis 6.0+）
	Password     string        // 密码
	DB           int           // 数据库编号
	PoolSize     int           // 连接池大小
	MinIdleConns int           // 最小空闲连接
	DialTimeout  time.Duration // 连接超时
	ReadTimeout  time.Duration // 读超时
	WriteTimeout time.Duration // 写超时
}

// MemoryConfig 内存缓存配置
type MemoryConfig struct {
	DefaultExpiration time.Duration // 默认过期时间
	CleanupInterval   time.Duration // 清理间隔
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Driver:     DriverMemory,
		Serializer: &JSONSerializer{},
		DefaultTTL: 10 * time.Minute,
		Memory: &MemoryConfig{
			DefaultExpiration: 10 * time.Minute,
			CleanupInterval:   time.Minute,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverRedis:
		if c.Redis == nil || c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis addr is required", ErrCacheInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unsupported driver type %q", ErrCacheInvalidConfig, c.Driver)
	}
	return nil
}

// New 创建缓存实例
func New(cfg *Config) (Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Serializer == nil {
		cfg.Serializer = &JSONSerializer{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverRedis:
		return newRedisCache(cfg)
	default:
		return newMemoryCache(cfg)
	}
}
