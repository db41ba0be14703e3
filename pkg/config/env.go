package config

// EnvPrefix is unused by the explicit envconfig tags but keeps Process happy.
const EnvPrefix = "BLOOMCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "BLOOMCART_APP_ENV"
	EnvPort              = "BLOOMCART_APP_PORT"
	EnvDBDSN             = "BLOOMCART_DB_DSN"
	EnvDBHost            = "BLOOMCART_DB_HOST"
	EnvDBUser            = "BLOOMCART_DB_USER"
	EnvDBName            = "BLOOMCART_DB_NAME"
	EnvRedisURL          = "BLOOMCART_REDIS_URL"
	EnvJWTSecret         = "BLOOMCART_JWT_SECRET"
	EnvJWTIssuer         = "BLOOMCART_JWT_ISSUER"
	EnvUseSQLite         = "BLOOMCART_USE_SQLITE"
	EnvShippingBaseFee   = "BLOOMCART_SHIPPING_BASE_FEE"
	EnvCartSyncDebounce  = "BLOOMCART_CART_SYNC_DEBOUNCE"
	EnvGoogleMapsAPIKey  = "BLOOMCART_GOOGLE_MAPS_API_KEY"
	EnvCronBackfillEvery = "BLOOMCART_CRON_GEOCODE_BACKFILL_EVERY"
	EnvRegionalCacheTTL  = "BLOOMCART_REGIONAL_PRICE_CACHE_TTL"
	EnvShippingMaxStores = "BLOOMCART_SHIPPING_MAX_STORES"
	EnvCORSOrigins       = "BLOOMCART_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
