package database

import "time"

// DBType 数据库类型
type DBType string

const (
	MySQL      DBType = "mysql"
	PostgreSQL DBType = "postgres"
	SQLite     DBType = "sqlite"
	SQLServer  DBType = "sqlserver"
)

// Config 数据库连接配置
type Config struct {
	Type DBType // 数据库类型: mysql, postgres, sqlite, sqlserver
	DSN  string // 数据源名称 (Data Source Name)

	// 连接池配置
	MaxIdleConns    int           // 最大空闲连接数
	MaxOpenConns    int           // 最大打开连接数
	ConnMaxLifetime time.Duration // 连接最大生命周期
	ConnMaxIdleTime time.Duration // 连接最大空闲时间

	// GORM 配置
	SkipDefaultTransaction bool // 跳过默认事务
	PrepareStmt            bool // 预编译语句

	// 日志配置
	LogLevel      int           // 日志级别 (1:Silent 2:Error 3:Warn 4:Info)
	SlowThreshold time.Duration // 慢查询阈值

	// 读写分离配置
	Replicas      []string // 只读从库 DSN 列表（可选）
	ReplicaPolicy string   // 负载均衡策略: random(随机), round_robin(轮询)
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Type:            PostgreSQL,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		PrepareStmt:     true,
		LogLevel:        3, // Warn
		SlowThreshold:   200 * time.Millisecond,
	}
}
