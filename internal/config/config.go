package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置（name cache）
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 数据同步服务配置
type Config struct {
	// Operational store (read-only source of reservations)
	Operational DatabaseConfig

	// BI sink (single-connection analytics target)
	Sink DatabaseConfig

	Redis RedisConfig

	Sync struct {
		// 同步间隔（秒），默认 15 秒
		IntervalSeconds int
		// Bounded wait for the single sink connection slot
		AcquireTimeoutSeconds int
		// Provenance tags written with every sink row
		Region     string
		Currency   string
		DataSource string
		// Name cache TTL（秒）
		NameCacheTTLSeconds int
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Operational.Host = getEnv("OPDB_HOST", "localhost")
	cfg.Operational.Port = getEnvInt("OPDB_PORT", 5432)
	cfg.Operational.User = getEnv("OPDB_USER", "postgres")
	cfg.Operational.Password = getEnv("OPDB_PASSWORD", "postgres")
	cfg.Operational.Database = getEnv("OPDB_NAME", "hotel_reservation")
	cfg.Operational.SSLMode = getEnv("OPDB_SSLMODE", "disable")
	cfg.Operational.MaxConns = getEnvInt("OPDB_MAX_CONNS", 5)
	cfg.Operational.MaxIdle = getEnvInt("OPDB_MAX_IDLE", 2)

	cfg.Sink.Host = getEnv("BIDB_HOST", "localhost")
	cfg.Sink.Port = getEnvInt("BIDB_PORT", 5433)
	cfg.Sink.User = getEnv("BIDB_USER", "postgres")
	cfg.Sink.Password = getEnv("BIDB_PASSWORD", "postgres")
	cfg.Sink.Database = getEnv("BIDB_NAME", "china_bi_system")
	cfg.Sink.SSLMode = getEnv("BIDB_SSLMODE", "disable")
	// The sink is a shared, constrained resource: hard cap of one connection.
	cfg.Sink.MaxConns = 1
	cfg.Sink.MaxIdle = 0

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Sync.IntervalSeconds = getEnvInt("SYNC_INTERVAL_SECONDS", 15)
	if cfg.Sync.IntervalSeconds <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL_SECONDS must be positive, got %d", cfg.Sync.IntervalSeconds)
	}
	cfg.Sync.AcquireTimeoutSeconds = getEnvInt("SINK_ACQUIRE_TIMEOUT_SECONDS", 30)
	cfg.Sync.Region = getEnv("REGION", "EU")
	cfg.Sync.Currency = getEnv("CURRENCY", "EUR")
	cfg.Sync.DataSource = getEnv("DATA_SOURCE", "EU-HOTEL-SYSTEM")
	cfg.Sync.NameCacheTTLSeconds = getEnvInt("NAME_CACHE_TTL_SECONDS", 600)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8085")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
