package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.TaxRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"CELLAR_APP_ENV" required:"true"`
	Port          string `envconfig:"CELLAR_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"CELLAR_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"CELLAR_LOG_WARN_STACK" default:"false"`
	StorefrontURL string `envconfig:"CELLAR_STOREFRONT_URL" default:"http://localhost:3000"`
	PublicURL     string `envconfig:"CELLAR_PUBLIC_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CELLAR_DB_DSN"`
	Driver string `envconfig:"CELLAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CELLAR_DB_HOST"`
	LegacyPort     int    `envconfig:"CELLAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CELLAR_DB_USER"`
	LegacyPassword string `envconfig:"CELLAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"CELLAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"CELLAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CELLAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CELLAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CELLAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CELLAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CELLAR_REDIS_URL"`
	Address      string        `envconfig:"CELLAR_REDIS_ADDR"`
	Password     string        `envconfig:"CELLAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"CELLAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CELLAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CELLAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CELLAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CELLAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CELLAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify identity-provider session tokens.
type JWTConfig struct {
	Secret            string `envconfig:"CELLAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CELLAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CELLAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"CELLAR_STRIPE_API_KEY"`
	Secret   string `envconfig:"CELLAR_STRIPE_SECRET"`
	Env      string `envconfig:"CELLAR_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"CELLAR_STRIPE_CURRENCY" default:"usd"`
	// APIURL points the client at stripe-mock or another local stand-in.
	APIURL string `envconfig:"CELLAR_STRIPE_API_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	TaxRateRaw        string        `envconfig:"CELLAR_CHECKOUT_TAX_RATE" default:"0.10"`
	FlatShippingCents int64         `envconfig:"CELLAR_CHECKOUT_FLAT_SHIPPING_CENTS" default:"500"`
	ReturnPath        string        `envconfig:"CELLAR_CHECKOUT_RETURN_PATH" default:"/checkout/return"`
	CartViewTTL       time.Duration `envconfig:"CELLAR_CART_VIEW_TTL" default:"10m"`
}

// TaxRate parses the configured tax rate as an exact decimal fraction.
func (c CheckoutConfig) TaxRate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.TaxRateRaw)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCheckoutTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in [0, 1)", EnvCheckoutTaxRate)
	}
	return rate, nil
}

// RateLimitConfig throttles cart writes and checkout per caller. A zero
// limit disables the policy.
type RateLimitConfig struct {
	CartWindow     time.Duration `envconfig:"CELLAR_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartLimit      int64         `envconfig:"CELLAR_RATE_LIMIT_CART_LIMIT" default:"60"`
	CheckoutWindow time.Duration `envconfig:"CELLAR_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int64         `envconfig:"CELLAR_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"CELLAR_CRON_INTERVAL" default:"1h"`
	LockTTL        time.Duration `envconfig:"CELLAR_CRON_LOCK_TTL" default:"30m"`
	UnpaidOrderTTL time.Duration `envconfig:"CELLAR_CRON_UNPAID_ORDER_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CELLAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CELLAR_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:cellar.db?_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
