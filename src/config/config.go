// Package config provides configuration management for hserr-agent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultCacheSize is the number of reports the MCP server keeps in memory.
const DefaultCacheSize = 128

// Config holds the application configuration.
type Config struct {
	// RedpandaBrokers is a comma separated broker list. Empty means the
	// in-memory broker.
	RedpandaBrokers string
	// PostgresDSN selects the Postgres report store.
	PostgresDSN string
	// SQLitePath selects the local SQLite report store.
	SQLitePath string

	Archive   ArchiveConfig
	CacheSize int
	Debug     bool
}

// ArchiveConfig points at the S3 compatible bucket raw reports are kept in.
type ArchiveConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether an archive endpoint is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

// LoadFromEnv loads configuration from environment variables, after
// reading a .env file when one exists.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cacheSize := DefaultCacheSize
	if raw := strings.TrimSpace(os.Getenv("HSERR_CACHE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("HSERR_CACHE_SIZE must be a positive integer, got %q", raw)
		}
		cacheSize = n
	}

	useSSL := true
	if raw := strings.TrimSpace(os.Getenv("HSERR_ARCHIVE_USE_SSL")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("HSERR_ARCHIVE_USE_SSL: %w", err)
		}
		useSSL = v
	}

	cfg := &Config{
		RedpandaBrokers: strings.TrimSpace(os.Getenv("REDPANDA_BROKERS")),
		PostgresDSN:     strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		SQLitePath:      strings.TrimSpace(os.Getenv("HSERR_SQLITE_PATH")),
		Archive: ArchiveConfig{
			Endpoint:  strings.TrimSpace(os.Getenv("HSERR_ARCHIVE_ENDPOINT")),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("HSERR_ARCHIVE_BUCKET")), "hserr-reports"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("HSERR_ARCHIVE_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("HSERR_ARCHIVE_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			UseSSL:    useSSL,
		},
		CacheSize: cacheSize,
		Debug:     isTrue(os.Getenv("HSERR_DEBUG")),
	}
	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// IsDistributed reports whether both the broker and Postgres are configured.
func (c *Config) IsDistributed() bool {
	return c.RedpandaBrokers != "" && c.PostgresDSN != ""
}

// Brokers splits RedpandaBrokers into addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.RedpandaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func isTrue(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
