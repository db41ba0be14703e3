package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	GoogleMaps    GoogleMapsConfig
	Shipping      ShippingConfig
	Cart          CartConfig
	RegionalPrice RegionalPriceConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BLOOMCART_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOOMCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLOOMCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BLOOMCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BLOOMCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig covers the API server edge: timeouts, CORS and the public quote rate limit.
type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"BLOOMCART_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"BLOOMCART_HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"BLOOMCART_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"BLOOMCART_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitWindow time.Duration `envconfig:"BLOOMCART_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"BLOOMCART_RATE_LIMIT_PER_IP" default:"60"`
}

type DBConfig struct {
	DSN    string `envconfig:"BLOOMCART_DB_DSN"`
	Driver string `envconfig:"BLOOMCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOOMCART_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOOMCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOOMCART_DB_USER"`
	LegacyPassword string `envconfig:"BLOOMCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOOMCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOOMCART_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"BLOOMCART_SQLITE_PATH" default:"bloomcart.db"`

	MaxOpenConns    int           `envconfig:"BLOOMCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOOMCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOOMCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOOMCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOOMCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BLOOMCART_REDIS_ADDR"`
	Password     string        `envconfig:"BLOOMCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOOMCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOOMCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOOMCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOOMCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOOMCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOOMCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the auth service.
type JWTConfig struct {
	Secret            string `envconfig:"BLOOMCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BLOOMCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BLOOMCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BLOOMCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BLOOMCART_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey       string `envconfig:"BLOOMCART_GOOGLE_MAPS_API_KEY"`
	RegionCode   string `envconfig:"BLOOMCART_GOOGLE_MAPS_REGION_CODE" default:"VN"`
	LanguageCode string `envconfig:"BLOOMCART_GOOGLE_MAPS_LANGUAGE_CODE" default:"vi"`
}

// ShippingConfig drives the distance based delivery quote. Amounts are in minor currency units.
type ShippingConfig struct {
	BaseFee       int64   `envconfig:"BLOOMCART_SHIPPING_BASE_FEE" default:"15000"`
	PerKmFee      int64   `envconfig:"BLOOMCART_SHIPPING_PER_KM_FEE" default:"5000"`
	FreeKm        float64 `envconfig:"BLOOMCART_SHIPPING_FREE_KM" default:"2"`
	RoundTo       int64   `envconfig:"BLOOMCART_SHIPPING_ROUND_TO" default:"1000"`
	MaxDistanceKm float64 `envconfig:"BLOOMCART_SHIPPING_MAX_DISTANCE_KM" default:"10"`
	MaxStores     int     `envconfig:"BLOOMCART_SHIPPING_MAX_STORES" default:"5"`
}

type CartConfig struct {
	SyncDebounce time.Duration `envconfig:"BLOOMCART_CART_SYNC_DEBOUNCE" default:"300ms"`
	LocalTTL     time.Duration `envconfig:"BLOOMCART_CART_LOCAL_TTL" default:"720h"`
}

type RegionalPriceConfig struct {
	CacheTTL time.Duration `envconfig:"BLOOMCART_REGIONAL_PRICE_CACHE_TTL" default:"10m"`
}

// CronConfig drives cmd/cron-worker. Tick is how often the worker looks for due jobs.
type CronConfig struct {
	Tick                 time.Duration `envconfig:"BLOOMCART_CRON_TICK" default:"1m"`
	LockTTL              time.Duration `envconfig:"BLOOMCART_CRON_LOCK_TTL" default:"55m"`
	GeocodeBackfillEvery time.Duration `envconfig:"BLOOMCART_CRON_GEOCODE_BACKFILL_EVERY" default:"1h"`
	GeocodeBackfillSize  int           `envconfig:"BLOOMCART_CRON_GEOCODE_BACKFILL_SIZE" default:"50"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = db.SQLitePath
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
