package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config catalog-host (HTTP API) configuration
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
		Enabled  bool
	}
	Log struct {
		Level  string
		Format string
	}
	Media  MediaConfig
	Search SearchConfig
}

// DatabaseConfig PostgreSQL connection settings
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

// GetDSN builds the lib/pq connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// MediaConfig local image file storage settings
type MediaConfig struct {
	Root string // root directory for stored image files
}

// SearchConfig fuzzy search tunables
type SearchConfig struct {
	ScoreCutoff int // minimum similarity score (0-100) for fuzzy candidates
	FuzzyLimit  int // max distinct names kept from the fuzzy pass
	CacheTTLSec int // TTL for cached search responses (0 disables caching)
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "catalog")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	// Redis is optional: when disabled the search service runs without a cache.
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Media.Root = getEnv("MEDIA_ROOT", "./media")

	cfg.Search.ScoreCutoff = parseInt(getEnv("SEARCH_SCORE_CUTOFF", "60"), 60)
	cfg.Search.FuzzyLimit = parseInt(getEnv("SEARCH_FUZZY_LIMIT", "10"), 10)
	cfg.Search.CacheTTLSec = parseInt(getEnv("SEARCH_CACHE_TTL", "30"), 30)

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
