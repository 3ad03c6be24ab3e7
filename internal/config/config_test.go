package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IMAGES_SECRET", "s3cret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Images.Secret)
	assert.Equal(t, "sha1", cfg.Images.Digest)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "image-variants", cfg.Kafka.VariantsTopic)
	assert.Equal(t, 720*time.Hour, cfg.Images.CacheMaxAge)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "postgres://postgres:@db.internal:5432/dynamic_image?sslmode=disable", cfg.DBDSN())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("IMAGES_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Secret")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
server:
  addr: "9090"
images:
  secret: from-file
  digest: sha256
retry:
  attempts: 7
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Addr)
	assert.Equal(t, "sha256", cfg.Images.Digest)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, 7, cfg.DefaultRetryStrategy().Attempts)
	assert.Equal(t, 5, cfg.TaskRetryStrategy().Attempts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDigest(t *testing.T) {
	t.Setenv("IMAGES_SECRET", "s3cret")
	t.Setenv("IMAGES_DIGEST", "md5")

	_, err := Load("")
	assert.Error(t, err)
}
