package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surveyflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dir: ./surveys
log:
  level: debug
http:
  addr: ":9090"
  cors: ["https://app.example.com"]
store:
  driver: redis
  redis:
    addr: localhost:6379
    ttl: 1h
engine:
  maxSteps: 50
`), 0o644))

	t.Setenv("SURVEYFLOW_HTTP_ADDR", ":7070")
	t.Setenv("DB_URL", "postgres://u:p@db/surveys")
	t.Setenv("SURVEYFLOW_RESPONSES", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./surveys", cfg.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "default kept")
	assert.Equal(t, ":7070", cfg.HTTP.Addr, "env wins over file")
	assert.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.CORS)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 50, cfg.Engine.MaxSteps)
	assert.Equal(t, "postgres", cfg.Responses.Driver)
	assert.Equal(t, "postgres://u:p@db/surveys", cfg.Responses.DatabaseURL)
}

func TestLoad_PrefixedWinsOverBare(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SURVEYFLOW_LOG_LEVEL", "error")
	t.Setenv("SURVEYFLOW_MASK_PII", "true")
	t.Setenv("SURVEYFLOW_CORS", "a,b")
	t.Setenv("SURVEYFLOW_REDIS_TTL", "90s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Store.MaskPII)
	assert.Equal(t, []string{"a", "b"}, cfg.HTTP.CORS)
	assert.Equal(t, 90*time.Second, cfg.Store.Redis.TTL)
}

func TestLoad_BareAlias(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.Publisher.AMQPURL)
}

func TestLoad_DerivedEnvNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SURVEYFLOW_STORE_DRIVER", "file")
	t.Setenv("SURVEYFLOW_ENGINE_MAXSTEPS", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 12, cfg.Engine.MaxSteps)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, d.Dir, cfg.Dir)
	assert.Equal(t, d.HTTP.Addr, cfg.HTTP.Addr)
	assert.Equal(t, d.Store.Driver, cfg.Store.Driver)
	assert.Equal(t, d.Store.Path, cfg.Store.Path)
	assert.Zero(t, cfg.Engine.MaxSteps)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "surveyflow.yaml"), []byte("store:\n  driver: file\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, ".surveyflow/attempts", cfg.Store.Path, "default kept")
}

func TestLoad_InvalidEnvValues(t *testing.T) {
	for _, key := range []string{"SURVEYFLOW_MASK_PII", "SURVEYFLOW_REDIS_DB", "SURVEYFLOW_REDIS_TTL", "SURVEYFLOW_MAX_STEPS"} {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, "not-valid")
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.Store.Driver = "sqlite"
	assert.Error(t, bad.Validate())

	noRedis := Default()
	noRedis.Store.Driver = "redis"
	assert.Error(t, noRedis.Validate())

	noDSN := Default()
	noDSN.Responses.Driver = "postgres"
	assert.Error(t, noDSN.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
