package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaincore/internal/blob"
	"chaincore/internal/deltalog"
	"chaincore/internal/queue"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "v1.0", cfg.DefaultVersion)
	assert.Equal(t, blob.DriverFilesystem, cfg.Blob.Driver)
	assert.Equal(t, queue.DriverRedis, cfg.Queue.Driver)
	assert.Equal(t, deltalog.DriverSQLite, cfg.DeltaLog.Driver)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CHAINCORE_DEFAULT_VERSION", "v2.0")
	t.Setenv("CHAINCORE_BLOB_DRIVER", "memory")
	t.Setenv("CHAINCORE_QUEUE_DRIVER", "memory")
	t.Setenv("CHAINCORE_DELTALOG_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "v2.0", cfg.DefaultVersion)
	assert.Equal(t, blob.DriverMemory, cfg.Blob.Driver)
	assert.Equal(t, queue.DriverMemory, cfg.Queue.Driver)
	assert.Equal(t, deltalog.DriverMemory, cfg.DeltaLog.Driver)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRequiresS3Bucket(t *testing.T) {
	t.Setenv("CHAINCORE_BLOB_DRIVER", "s3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAINCORE_BLOB_S3_BUCKET")

	t.Setenv("CHAINCORE_BLOB_S3_BUCKET", "graphs")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "graphs", cfg.Blob.S3.Bucket)
}
