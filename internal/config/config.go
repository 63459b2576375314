// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chaincore/internal/blob"
	"chaincore/internal/deltalog"
	"chaincore/internal/queue"
)

// Config holds all application configuration.
//
//	PORT: HTTP listen port (default 8080)
//	ENV: development|production (default development)
//	CHAINCORE_DEFAULT_VERSION: version namespace for unversioned requests
//	CHAINCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	CHAINCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./data)
//	CHAINCORE_BLOB_S3_BUCKET / _REGION / _ENDPOINT / _PATH_STYLE: s3 driver
//	CHAINCORE_QUEUE_DRIVER: redis|memory (default redis)
//	CHAINCORE_REDIS_URL: redis URL (default redis://localhost:6379)
//	CHAINCORE_DELTALOG_DRIVER: sqlite|postgres|memory (default sqlite)
//	CHAINCORE_SQLITE_PATH: sqlite file when driver=sqlite
//	CHAINCORE_POSTGRES_DSN: postgres DSN when driver=postgres
type Config struct {
	Port           string
	Env            string
	DefaultVersion string

	Blob     blob.Options
	Queue    queue.Options
	DeltaLog deltalog.Options
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DefaultVersion: getEnv("CHAINCORE_DEFAULT_VERSION", "v1.0"),
		Blob: blob.Options{
			Driver: blob.Driver(getEnv("CHAINCORE_BLOB_DRIVER", string(blob.DriverFilesystem))),
			FSRoot: getEnv("CHAINCORE_BLOB_FS_ROOT", "./data"),
			S3: blob.S3Options{
				Bucket:          os.Getenv("CHAINCORE_BLOB_S3_BUCKET"),
				Region:          os.Getenv("CHAINCORE_BLOB_S3_REGION"),
				Endpoint:        os.Getenv("CHAINCORE_BLOB_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				PathStyle:       getEnv("CHAINCORE_BLOB_S3_PATH_STYLE", "false") == "true",
			},
		},
		Queue: queue.Options{
			Driver:   queue.Driver(getEnv("CHAINCORE_QUEUE_DRIVER", string(queue.DriverRedis))),
			RedisURL: getEnv("CHAINCORE_REDIS_URL", "redis://localhost:6379"),
		},
		DeltaLog: deltalog.Options{
			Driver:      deltalog.Driver(getEnv("CHAINCORE_DELTALOG_DRIVER", string(deltalog.DriverSQLite))),
			SQLitePath:  getEnv("CHAINCORE_SQLITE_PATH", "chaincore_deltas.db"),
			PostgresDSN: os.Getenv("CHAINCORE_POSTGRES_DSN"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements before any backend is opened.
func (c *Config) Validate() error {
	if c.Blob.Driver == blob.DriverS3 && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("CHAINCORE_BLOB_S3_BUCKET is required when the blob driver is s3")
	}
	if c.DefaultVersion == "" {
		return fmt.Errorf("CHAINCORE_DEFAULT_VERSION must not be empty")
	}
	return nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
