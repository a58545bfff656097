package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=5000"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=720h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	ClientURL string        `env:"CLIENT_URL, default=http://localhost:5173"`

	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=reelbase"`
}

type RedisConfig struct {
	Enabled        bool          `env:"REDIS_ENABLED,         default=true"`
	Addr           string        `env:"REDIS_ADDR,            default=localhost:6379"`
	DB             int           `env:"REDIS_DB,              default=0"`
	IdempotencyTTL time.Duration `env:"REDIS_IDEMPOTENCY_TTL, default=24h"`
}

// MailConfig selects how verification mail is delivered: "smtp" or "log".
type MailConfig struct {
	Driver   string `env:"MAIL_DRIVER,   default=log"`
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,     default=no-reply@reelbase.local"`
	UseTLS   bool   `env:"SMTP_USE_TLS,  default=false"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return errors.New("SMTP_HOST is required when MAIL_DRIVER=smtp")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q", c.Mail.Driver)
	}
	return nil
}
