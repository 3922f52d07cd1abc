package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: "9090"
  mode: debug
database:
  host: db.local
  user: quiz
  dbname: quizmaster
auth:
  jwt_secret: file-secret
leaderboard:
  cache_ttl_seconds: 120
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv сбрасывает переменные, которые могут прийти из окружения CI
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "GIN_MODE", "DATABASE_HOST", "DATABASE_USER", "DATABASE_DBNAME",
		"DATABASE_PASSWORD", "AUTH_JWT_SECRET", "REDIS_ADDRS", "LEADERBOARD_LIMIT", "SERVER_TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, testYAML)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "Порт берется из умолчаний")
	assert.Equal(t, 20, cfg.Attempt.MaxQuestions)
	assert.Equal(t, 10, cfg.Leaderboard.Limit)
	assert.Equal(t, 2*time.Minute, cfg.Leaderboard.CacheTTL())
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, "quizmaster-api", cfg.Auth.Issuer)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_HOST", "env-host")
	t.Setenv("AUTH_JWT_SECRET", "env-secret")
	t.Setenv("LEADERBOARD_LIMIT", "25")
	t.Setenv("REDIS_ADDRS", "r1:6379,r2:6379")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	path := writeConfig(t, testYAML)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 25, cfg.Leaderboard.Limit)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.Redis.Addrs)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_HOST", "h")
	t.Setenv("DATABASE_USER", "u")
	t.Setenv("DATABASE_DBNAME", "d")
	t.Setenv("AUTH_JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:      ServerConfig{Mode: "release"},
			Database:    DatabaseConfig{Host: "h", User: "u", DBName: "d", Password: "p"},
			Auth:        AuthConfig{JWTSecret: "s"},
			Attempt:     AttemptConfig{MaxQuestions: 20},
			Leaderboard: LeaderboardConfig{Limit: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "валидная конфигурация", mutate: func(c *Config) {}},
		{name: "нет секрета", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "jwt secret"},
		{name: "нет хоста БД", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "database configuration"},
		{name: "нет пароля в release", mutate: func(c *Config) { c.Database.Password = "" }, wantErr: "password"},
		{name: "пароль не нужен в debug", mutate: func(c *Config) { c.Database.Password = ""; c.Server.Mode = "debug" }},
		{name: "нулевой размер выборки", mutate: func(c *Config) { c.Attempt.MaxQuestions = 0 }, wantErr: "max_questions"},
		{name: "нулевой лимит рейтинга", mutate: func(c *Config) { c.Leaderboard.Limit = 0 }, wantErr: "leaderboard.limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
