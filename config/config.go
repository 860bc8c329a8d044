// Package config loads application settings from the environment, after
// merging an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// App holds every runtime setting.
type App struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8000"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"buildmart"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"buildmart.events"`

	MailDriver       string `envconfig:"MAIL_DRIVER" default:"log"`
	PostmarkAPIToken string `envconfig:"POSTMARK_API_TOKEN"`
	SendgridAPIKey   string `envconfig:"SENDGRID_API_KEY"`
	EmailSender      string `envconfig:"EMAIL_SENDER" default:"orders@buildmart.local"`
	ContactInbox     string `envconfig:"CONTACT_INBOX"`

	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"300"`
	NotificationTTL time.Duration `envconfig:"NOTIFICATION_TTL" default:"720h"`
}

const (
	devJWTSecret  = "dev-only-secret"
	defaultEnv    = "development"
	defaultPort   = "8000"
	defaultDriver = "log"
)

// Load reads .env (if present) and the process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("process env: %w", err)
	}
	// envconfig keeps a variable that is set but empty
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.MailDriver == "" {
		c.MailDriver = defaultDriver
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return App{}, errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.MailDriver {
	case "log", "postmark", "sendgrid":
	default:
		return App{}, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver)
	}
	return c, nil
}

// IsProduction reports whether the app runs in production mode.
func (c App) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
