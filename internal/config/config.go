package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name. Nested groups add their own
// segment (RESTORAN_DB_DATABASE_DSN); the bare tag name is accepted as a fallback.
const EnvPrefix = "RESTORAN"

const (
	defaultDatabaseDSN = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	DB    DBConfig
	Redis RedisConfig
	Audit AuditConfig
}

type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// RedisConfig is optional; an empty URL disables idempotency replay.
type RedisConfig struct {
	URL            string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

type AuditConfig struct {
	BulkTimeout    time.Duration `envconfig:"AUDIT_BULK_TIMEOUT" default:"30s"`
	ActivityBuffer int           `envconfig:"ACTIVITY_LOG_BUFFER" default:"256"`
}

// Warning describes a non-fatal configuration smell reported at boot.
type Warning string

// Load reads .env (when present) and the process environment.
func Load() (*Config, []Warning, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, cfg.warnings(), nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Audit.BulkTimeout <= 0 {
		return fmt.Errorf("AUDIT_BULK_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) warnings() []Warning {
	var out []Warning
	if c.DB.DSN == defaultDatabaseDSN {
		out = append(out, "DATABASE_DSN uses the built-in default; set your own Postgres DSN in production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the development default")
	}
	return out
}

// LoadDB reads only the database group, for tools that never serve HTTP.
func LoadDB() (DBConfig, error) {
	_ = godotenv.Load()

	var db DBConfig
	if err := envconfig.Process(EnvPrefix+"_DB", &db); err != nil {
		return DBConfig{}, fmt.Errorf("parsing db config: %w", err)
	}
	if db.DSN == "" {
		return DBConfig{}, fmt.Errorf("DATABASE_DSN is required")
	}
	return db, nil
}
