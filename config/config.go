package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	IcecatBaseURL  string
	IcecatUser     string
	IcecatPassword string
	SupplierID     string

	IndexDir  string
	FullIndex bool
	CacheDir  string

	HTTPTimeoutMs   int
	SyncWindowHours int
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int

	OutcomeCSVPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "catalog"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "catalog123"),
		PostgresDB:       getEnv("POSTGRES_DB", "catalog_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		IcecatBaseURL:  getEnv("ICECAT_BASE_URL", "https://data.icecat.biz"),
		IcecatUser:     getEnv("ICECAT_USER", ""),
		IcecatPassword: getEnv("ICECAT_PASSWORD", ""),
		SupplierID:     getEnv("ICECAT_SUPPLIER_ID", "1"), // Hewlett Packard

		IndexDir:  getEnv("INDEX_DIR", "./catalogs"),
		FullIndex: getEnvBool("FULL_INDEX", false),
		CacheDir:  getEnv("CACHE_DIR", "./cache/xml"),

		HTTPTimeoutMs:   getEnvInt("HTTP_TIMEOUT_MS", 30000),
		SyncWindowHours: getEnvInt("SYNC_WINDOW_HOURS", 24),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 250),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),

		OutcomeCSVPath: getEnv("OUTCOME_CSV_PATH", "./output/sync_failures.csv"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// IndexPath returns the master index file for this run: the full index, or
// the daily delta named after the given date.
func (c *Config) IndexPath(date time.Time) string {
	if c.FullIndex {
		return filepath.Join(c.IndexDir, "files.index.xml")
	}
	return filepath.Join(c.IndexDir, date.Format("2006-01-02")+"-index.xml")
}

// HTTPTimeout returns the fetch timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

// SyncWindow returns the recency window for incremental re-downloads.
func (c *Config) SyncWindow() time.Duration {
	return time.Duration(c.SyncWindowHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
