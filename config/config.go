/*
Package config builds the process configuration once at startup.

PURPOSE:
  Settings come from the environment, optionally seeded from a .env file.
  Load returns an explicit *Config that main passes to the store, the router
  and the auth issuer; nothing reads the environment after that.

SOURCES (later wins):
  1. defaults below
  2. .env file (godotenv; never overrides variables already set)
  3. process environment (viper AutomaticEnv)
  4. command-line flags, applied by cmd/server

SEE ALSO:
  - cmd/server/main.go: flag overrides
  - store/sqlstore: uses DSN / Dialect / GormLogLevel
*/
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Config is the full runtime configuration.
type Config struct {
	ProjectName string
	Port        int
	APIPrefix   string

	SecretKey      string
	AccessTokenTTL time.Duration
	AuthRequired   bool

	DatabaseURL     string
	UseSQLiteMemory bool

	FirstSuperuser         string
	FirstSuperuserPassword string

	LogLevel    string
	CORSOrigins []string

	CreateSampleData bool
	EnableScenarios  bool

	// ReportCheckInterval is how often the report scheduler looks for due
	// reports. Zero disables it.
	ReportCheckInterval time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("PROJECT_NAME", "School Management System")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_V1_STR", "/api/v1")
	v.SetDefault("SECRET_KEY", "change-me-in-production-0f9c2e7d")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("DATABASE_URL", "school.db")
	v.SetDefault("USE_SQLITE_MEMORY", false)
	v.SetDefault("FIRST_SUPERUSER", "admin@example.com")
	v.SetDefault("FIRST_SUPERUSER_PASSWORD", "admin")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CREATE_SAMPLE_DATA", false)
	v.SetDefault("ENABLE_SCENARIOS", true)
	v.SetDefault("REPORT_CHECK_INTERVAL", "0s")
}

// Load reads envFile (if it exists) and the environment. An empty envFile
// means ".env" in the working directory.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		ProjectName:            v.GetString("PROJECT_NAME"),
		Port:                   v.GetInt("PORT"),
		APIPrefix:              v.GetString("API_V1_STR"),
		SecretKey:              v.GetString("SECRET_KEY"),
		AccessTokenTTL:         time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		AuthRequired:           v.GetBool("AUTH_REQUIRED"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		UseSQLiteMemory:        v.GetBool("USE_SQLITE_MEMORY"),
		FirstSuperuser:         v.GetString("FIRST_SUPERUSER"),
		FirstSuperuserPassword: v.GetString("FIRST_SUPERUSER_PASSWORD"),
		LogLevel:               strings.ToLower(v.GetString("LOG_LEVEL")),
		CORSOrigins:            splitList(v.GetString("CORS_ORIGINS")),
		CreateSampleData:       v.GetBool("CREATE_SAMPLE_DATA"),
		EnableScenarios:        v.GetBool("ENABLE_SCENARIOS"),
		ReportCheckInterval:    v.GetDuration("REPORT_CHECK_INTERVAL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("config: SECRET_KEY must not be empty")
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	case !strings.HasPrefix(c.APIPrefix, "/"):
		return fmt.Errorf("config: API_V1_STR must start with /")
	case c.DatabaseURL == "" && !c.UseSQLiteMemory:
		return fmt.Errorf("config: DATABASE_URL must not be empty")
	case c.ReportCheckInterval < 0:
		return fmt.Errorf("config: REPORT_CHECK_INTERVAL must not be negative")
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("config: unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// Dialect picks the SQL engine from the database URL.
func (c *Config) Dialect() Dialect {
	if c.UseSQLiteMemory {
		return SQLite
	}
	u := strings.ToLower(c.DatabaseURL)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// DSN is the driver connection string. sqlite URLs may carry a sqlite://
// or sqlite:/// prefix, which is stripped.
func (c *Config) DSN() string {
	if c.UseSQLiteMemory {
		return ":memory:"
	}
	if c.Dialect() == Postgres {
		return c.DatabaseURL
	}
	dsn := c.DatabaseURL
	for _, prefix := range []string{"sqlite+aiosqlite:///", "sqlite:///", "sqlite://"} {
		if strings.HasPrefix(dsn, prefix) {
			return strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

var logLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
	"debug":  logger.Info,
}

// GormLogLevel maps LOG_LEVEL onto gorm's logger. SQL statements are only
// traced at debug; info logs slow queries and errors.
func (c *Config) GormLogLevel() logger.LogLevel {
	if c.LogLevel == "info" {
		return logger.Warn
	}
	if lvl, ok := logLevels[c.LogLevel]; ok {
		return lvl
	}
	return logger.Warn
}
