package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TrustProxyHeaders reads the client address from X-Forwarded-For and
	// similar headers. Only safe behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"` // host:port or redis:// URL; empty disables redis
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	UserCacheTTL time.Duration `yaml:"user_cache_ttl"`
}

type MetricsConfig struct {
	// RefreshInterval paces the gauges read from the database.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	// MirrorStatus copies the body status onto the HTTP status line.
	// When false every webhook answer is transported as 200.
	MirrorStatus *bool `yaml:"mirror_status"`
}

// DevBillingConfig feeds the in-memory provider used with -dev and no Stripe key.
type DevBillingConfig struct {
	Customers   map[string]string `yaml:"customers"`    // customer id -> email
	EmailDomain string            `yaml:"email_domain"` // unseeded customers resolve to <id>@<domain>
}

type PaymentConfig struct {
	Stripe StripeConfig     `yaml:"stripe"`
	Dev    DevBillingConfig `yaml:"dev"`
}

type ClerkConfig struct {
	FrontendAPI    string        `yaml:"frontend_api"` // e.g. https://clerk.example.com
	PublishableKey string        `yaml:"publishable_key"`
	Timeout        time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Clerk             ClerkConfig   `yaml:"clerk"`
	SessionSecret     string        `yaml:"session_secret"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	CookieDomain      string        `yaml:"cookie_domain"`
	SecureCookie      bool          `yaml:"secure_cookie"`
	AfterSignInURL    string        `yaml:"after_sign_in_url"`
	OAuthCallbackURL  string        `yaml:"oauth_callback_url"`
	SignInLimit       int           `yaml:"sign_in_limit"`
	SignInLimitWindow time.Duration `yaml:"sign_in_limit_window"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Auth     AuthConfig     `yaml:"auth"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, overlays environment variables
// (a .env file next to the process is loaded first when present), applies
// defaults and validates the required fields.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployments are fine
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.Payment.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setStr(&cfg.Payment.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setStr(&cfg.Auth.Clerk.FrontendAPI, "CLERK_FRONTEND_API")
	setStr(&cfg.Auth.Clerk.PublishableKey, "CLERK_PUBLISHABLE_KEY")
	setStr(&cfg.Auth.SessionSecret, "SESSION_SECRET")
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.UserCacheTTL <= 0 {
		cfg.Redis.UserCacheTTL = time.Hour
	}
	if cfg.Metrics.RefreshInterval <= 0 {
		cfg.Metrics.RefreshInterval = time.Minute
	}
	if cfg.Payment.Stripe.MirrorStatus == nil {
		mirror := true
		cfg.Payment.Stripe.MirrorStatus = &mirror
	}
	if cfg.Payment.Dev.EmailDomain == "" {
		cfg.Payment.Dev.EmailDomain = "dev.invalid"
	}
	if cfg.Auth.Clerk.Timeout <= 0 {
		cfg.Auth.Clerk.Timeout = 10 * time.Second
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.AfterSignInURL == "" {
		cfg.Auth.AfterSignInURL = "/dashboard"
	}
	if cfg.Auth.OAuthCallbackURL == "" {
		cfg.Auth.OAuthCallbackURL = "/sso-callback"
	}
	if cfg.Auth.SignInLimit <= 0 {
		cfg.Auth.SignInLimit = 10
	}
	if cfg.Auth.SignInLimitWindow <= 0 {
		cfg.Auth.SignInLimitWindow = time.Minute
	}
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	// dev falls back to an in-memory billing provider
	if c.Payment.Stripe.SecretKey == "" && !c.Runtime.Dev {
		return errors.New("payment.stripe.secret_key is required")
	}
	if c.Payment.Stripe.WebhookSecret == "" {
		return errors.New("payment.stripe.webhook_secret is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return errors.New("auth.session_secret must be at least 32 bytes")
	}
	return nil
}

// MirrorWebhookStatus reports whether webhook answers carry their body status on the wire.
func (c *Config) MirrorWebhookStatus() bool {
	return c.Payment.Stripe.MirrorStatus == nil || *c.Payment.Stripe.MirrorStatus
}
