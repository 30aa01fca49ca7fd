package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config studio-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Form    FormConfig
	Gateway GatewayConfig
}

// DatabaseConfig 数据库配置
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

// FormConfig 表单会话配置
type FormConfig struct {
	SessionTTL time.Duration // KV 中会话的存活时间
	// RefreshMinInterval 字段定义刷新的最小间隔（节流窗口，避免
	// window-focus 触发的请求风暴；不做 in-flight 去重，后写覆盖）
	RefreshMinInterval time.Duration
}

// GatewayConfig 消息网关（email/WhatsApp/SMS 测试发送）配置
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func Load() *Config {
	// .env 可选：没有就直接用环境变量
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, studio-data will
	// fall back to in-memory repositories. This avoids empty admin pages
	// when starting with plain `go run`.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "studiocrm")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Form.SessionTTL = parseDuration(getEnv("FORM_SESSION_TTL", "2h"), 2*time.Hour)
	cfg.Form.RefreshMinInterval = parseDuration(getEnv("FORM_REFRESH_MIN_INTERVAL", "10s"), 10*time.Second)

	cfg.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", "")
	cfg.Gateway.APIKey = getEnv("GATEWAY_API_KEY", "")
	cfg.Gateway.Timeout = parseDuration(getEnv("GATEWAY_TIMEOUT", "15s"), 15*time.Second)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
