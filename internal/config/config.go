package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	Environment     string
	ShutdownTimeout time.Duration
	Logger          LoggerConfig
	MySQL           MySQLConfig
	Redis           RedisConfig
	Reserve         ReserveConfig
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type ReserveConfig struct {
	// Strategy selects the default reservation variant: naive,
	// transactional or cached.
	Strategy string
	CacheTTL time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		Environment:     getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		MySQL: MySQLConfig{
			DSN:             getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockguard?parseTime=true"),
			MaxOpenConns:    getEnvInt("MYSQL_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("MYSQL_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 100),
		},
		Reserve: ReserveConfig{
			Strategy: getEnv("RESERVE_STRATEGY", "cached"),
			CacheTTL: getEnvDuration("CACHE_TTL", time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
