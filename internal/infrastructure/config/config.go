package config

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string        `env:"PORT,             default=8080"`
	Env            string        `env:"ENV,              default=development"`
	JWTSecret      string        `env:"JWT_SECRET,       required"`
	LogLevel       string        `env:"LOG_LEVEL,        default=info"`
	SessionTTL     time.Duration `env:"SESSION_TTL,      default=24h"`
	PublicURL      string        `env:"PUBLIC_URL,       default=http://localhost:3000"`
	EmailPattern   string        `env:"EMAIL_PATTERN"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START, default=true"`
	NotifyWorkers  int           `env:"NOTIFY_WORKERS,   default=2"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST,     default=localhost"`
	Port     int    `env:"DB_PORT,     default=5432"`
	User     string `env:"DB_USER,     default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,     default=ibs"`
	SSLMode  string `env:"DB_SSLMODE,  default=disable"`
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from the parts.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// An empty address or URI disables the dependency.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=ibs_audit"`
}

type EmailConfig struct {
	Host     string `env:"EMAIL_HOST, default=smtp.gmail.com"`
	Port     int    `env:"EMAIL_PORT, default=587"`
	User     string `env:"EMAIL_USER"`
	Password string `env:"EMAIL_PASS"`
	From     string `env:"EMAIL_FROM"`
	// To receives login notifications.
	To string `env:"EMAIL_TO"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"RATE_LIMIT_BURST, default=10"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// EmailRegexp compiles EMAIL_PATTERN; nil when unset.
func (c *Config) EmailRegexp() (*regexp.Regexp, error) {
	if c.EmailPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.EmailPattern)
	if err != nil {
		return nil, fmt.Errorf("config: EMAIL_PATTERN: %w", err)
	}
	return re, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if _, err := cfg.EmailRegexp(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
