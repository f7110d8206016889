package config

import "time"

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	WS       WSConfig       `mapstructure:"ws"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`             // 监听地址（默认 :5000）
	Mode            string        `mapstructure:"mode"`             // gin 模式（debug/release/test）
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅关闭超时
	AuthSecret      string        `mapstructure:"auth_secret"`      // 令牌签名密钥（必填）
	RateLimit       float64       `mapstructure:"rate_limit"`       // 每秒请求数上限（<=0 不限流）
	AllowOrigins    []string      `mapstructure:"allow_origins"`    // CORS 白名单
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`              // 数据库类型（mysql/postgres/sqlite/sqlserver）
	DSN             string        `mapstructure:"dsn"`               // 数据源
	Replicas        []string      `mapstructure:"replicas"`          // 只读从库 DSN 列表
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        int           `mapstructure:"log_level"`         // gorm 日志级别
}

// RedisConfig 缓存配置
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`  // 是否启用 redis 缓存（关闭时使用内存缓存）
	Addr     string        `mapstructure:"addr"`     // redis 地址
	Password string        `mapstructure:"password"` // 密码
	DB       int           `mapstructure:"db"`       // 库编号
	TTL      time.Duration `mapstructure:"ttl"`      // 默认过期时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string `mapstructure:"level"`   // 日志级别
	Format  string `mapstructure:"format"`  // 日志格式（json/console）
	File    string `mapstructure:"file"`    // 轮转文件路径（空则仅控制台）
	MaxSize int    `mapstructure:"max_size"` // 单文件最大大小（MB）
}

// WSConfig WebSocket 配置
type WSConfig struct {
	MaxConnections    int           `mapstructure:"max_connections"`    // 最大连接数
	MaxMessageSize    int64         `mapstructure:"max_message_size"`   // 最大消息大小
	SendQueueSize     int           `mapstructure:"send_queue_size"`    // 发送队列长度
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"` // 心跳间隔
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`  // 心跳超时
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`    // Origin 白名单（空则允许同源）
}

// Defaults 应用默认配置值
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":5000",
		"server.mode":             "release",
		"server.shutdown_timeout": "10s",
		"server.rate_limit":       100,
		// 必填项也要占位，viper 只对已知键读取环境变量，
		// 否则纯环境变量启动时 QUESTHUB_SERVER_AUTH_SECRET 会被忽略
		"server.auth_secret":      "",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_idle_conns": 10,
		"database.max_open_conns": 100,
		"redis.enabled":           false,
		"redis.addr":              "",
		"redis.password":          "",
		"redis.ttl":               "5m",
		"log.level":               "info",
		"log.format":              "json",
		"log.file":                "",
		"ws.max_connections":      10000,
		"ws.max_message_size":     64 * 1024,
		"ws.send_queue_size":      256,
		"ws.heartbeat_interval":   "30s",
		"ws.heartbeat_timeout":    "90s",
	}
}
