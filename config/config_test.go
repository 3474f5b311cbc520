package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 8*24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "admin@example.com", cfg.FirstSuperuser)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, SQLite, cfg.Dialect())
	assert.Equal(t, "school.db", cfg.DSN())
	assert.False(t, cfg.AuthRequired)
	assert.True(t, cfg.EnableScenarios)
	assert.Zero(t, cfg.ReportCheckInterval)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")
	t.Setenv("DATABASE_URL", "postgres://school:pw@localhost:5432/school?sslmode=disable")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://admin.example.org")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("REPORT_CHECK_INTERVAL", "5m")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, Postgres, cfg.Dialect())
	assert.Equal(t, "postgres://school:pw@localhost:5432/school?sslmode=disable", cfg.DSN())
	assert.Equal(t, []string{"http://localhost:5173", "https://admin.example.org"}, cfg.CORSOrigins)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, logger.Warn, cfg.GormLogLevel())
	assert.Equal(t, 5*time.Minute, cfg.ReportCheckInterval)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// GIVEN: a .env that sets the project name and a sqlite URL
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PROJECT_NAME=Test School\nDATABASE_URL=sqlite:///./data/test.db\n"), 0o600))
	// godotenv sets process env; restore it afterwards
	t.Setenv("PROJECT_NAME", "")
	os.Unsetenv("PROJECT_NAME")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	// WHEN
	cfg, err := Load(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "Test School", cfg.ProjectName)
	assert.Equal(t, "./data/test.db", cfg.DSN())
}

func TestLoad_MemoryOverridesURL(t *testing.T) {
	t.Setenv("USE_SQLITE_MEMORY", "true")
	t.Setenv("DATABASE_URL", "postgres://x@y/z")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, SQLite, cfg.Dialect())
	assert.Equal(t, ":memory:", cfg.DSN())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			SecretKey: "k", AccessTokenTTL: time.Minute, Port: 80,
			APIPrefix: "/api", DatabaseURL: "x.db", LogLevel: "info",
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.SecretKey = ""
	assert.Error(t, c.Validate())

	c = base()
	c.LogLevel = "loud"
	assert.Error(t, c.Validate())

	c = base()
	c.APIPrefix = "api"
	assert.Error(t, c.Validate())

	c = base()
	c.Port = 0
	assert.Error(t, c.Validate())

	c = base()
	c.ReportCheckInterval = -time.Second
	assert.Error(t, c.Validate())
}
