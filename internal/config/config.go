package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL       string `envconfig:"REDIS_URL" default:""`
	Version        string `envconfig:"VERSION" default:"dev"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"12"`

	JWTSecretKey             string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessTokenExpires       time.Duration `envconfig:"JWT_ACCESS_TOKEN_EXPIRES" default:"24h"`
	VerificationTokenExpires time.Duration `envconfig:"VERIFICATION_TOKEN_EXPIRES" default:"4h"`
	RevocationFailClosed     bool          `envconfig:"REVOCATION_FAIL_CLOSED" default:"false"`

	EmailMode          string `envconfig:"EMAIL_SERVICE_MODE" default:"development"`
	EmailAPIURL        string `envconfig:"SMTP_API_URL" default:""`
	EmailAPIKey        string `envconfig:"SMTP_API_KEY" default:""`
	SMTPHost           string `envconfig:"SMTP_HOST" default:""`
	SMTPPort           int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername       string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword       string `envconfig:"SMTP_PASSWORD" default:""`
	EmailSenderName    string `envconfig:"EMAIL_SENDER_NAME" default:"Estokealo"`
	EmailSenderAddress string `envconfig:"EMAIL_SENDER_ADDRESS" default:"no-reply@estokealo.com"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"1"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
	TrustProxy     bool    `envconfig:"TRUST_PROXY" default:"false"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
