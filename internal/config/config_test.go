package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"quashMarket/internal/config"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddr())
	assert.Equal(t, "inmemory", cfg.Repository.Type)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Worker.Interval)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.Equal(t, "quash.audit", cfg.Audit.Queue)
}

func TestLoad_FileEnvFlags(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
  cors_origins: ["https://quash.example"]
repository:
  type: postgres
database:
  url: postgres://file
  idle_timeout: 1m
auth:
  jwt_secret: from-file
worker:
  interval: 30s
  batch_size: 50
`)
	t.Setenv("QUASH_AUTH_JWT_SECRET", "from-env")
	t.Setenv("QUASH_REDIS_ADDR", "localhost:6379")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", "", "")
	flags.String("database-url", "", "")
	require.NoError(t, flags.Parse([]string{"--database-url", "postgres://flag"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port, "неизменённый флаг не перекрывает файл")
	assert.Equal(t, []string{"https://quash.example"}, cfg.Server.CorsOrigins)
	assert.Equal(t, "postgres://flag", cfg.Database.URL)
	assert.Equal(t, time.Minute, cfg.Database.IdleTimeout)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Worker.Interval)
	assert.Equal(t, 50, cfg.Worker.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Repository: config.RepositoryConfig{Type: "inmemory"},
			Auth:       config.AuthConfig{JWTSecret: "s"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *config.Config) {}},
		{name: "unknown repository", mutate: func(c *config.Config) { c.Repository.Type = "mongo" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *config.Config) { c.Repository.Type = "postgres" }, wantErr: true},
		{name: "missing secret", mutate: func(c *config.Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "audit without broker", mutate: func(c *config.Config) { c.Audit.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
