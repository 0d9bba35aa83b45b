package config

// EnvPrefix is handed to envconfig; every field declares its full variable name.
const EnvPrefix = "CELLAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "CELLAR_APP_ENV"
	EnvPort             = "CELLAR_APP_PORT"
	EnvStorefrontURL    = "CELLAR_STOREFRONT_URL"
	EnvPublicURL        = "CELLAR_PUBLIC_URL"
	EnvDBDSN            = "CELLAR_DB_DSN"
	EnvDBHost           = "CELLAR_DB_HOST"
	EnvDBUser           = "CELLAR_DB_USER"
	EnvDBName           = "CELLAR_DB_NAME"
	EnvRedisURL         = "CELLAR_REDIS_URL"
	EnvJWTSecret        = "CELLAR_JWT_SECRET"
	EnvJWTIssuer        = "CELLAR_JWT_ISSUER"
	EnvStripeAPIKey     = "CELLAR_STRIPE_API_KEY"
	EnvStripeSecret     = "CELLAR_STRIPE_SECRET"
	EnvCheckoutTaxRate  = "CELLAR_CHECKOUT_TAX_RATE"
	EnvCheckoutShipping = "CELLAR_CHECKOUT_FLAT_SHIPPING_CENTS"
	EnvUseSQLite        = "CELLAR_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
