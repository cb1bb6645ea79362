package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Session      SessionConfig
	Breaker      BreakerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if cfg.Cart.UsesDB() || cfg.FeatureFlags.AutoMigrate {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Cart.UsesRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required for the redis storage backend", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKFINDERZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PACKFINDERZ_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN"`
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACKFINDERZ_DB_HOST"`
	LegacyPort     int    `envconfig:"PACKFINDERZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACKFINDERZ_DB_USER"`
	LegacyPassword string `envconfig:"PACKFINDERZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACKFINDERZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACKFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CartConfig struct {
	Currency       string        `envconfig:"PACKFINDERZ_CART_CURRENCY" default:"USD"`
	StorageBackend string        `envconfig:"PACKFINDERZ_CART_STORAGE" default:"memory"`
	StorageKey     string        `envconfig:"PACKFINDERZ_CART_STORAGE_KEY" default:"b2b-marketplace-cart"`
	SlotTTL        time.Duration `envconfig:"PACKFINDERZ_CART_SLOT_TTL" default:"720h"`
	IdleTTL        time.Duration `envconfig:"PACKFINDERZ_CART_IDLE_TTL" default:"30m"`
	StorageTimeout time.Duration `envconfig:"PACKFINDERZ_CART_STORAGE_TIMEOUT" default:"2s"`
	SeedCatalog    bool          `envconfig:"PACKFINDERZ_CART_SEED_CATALOG" default:"false"`
}

// UsesDB reports whether cart slots live in the SQL database.
func (c CartConfig) UsesDB() bool {
	return strings.EqualFold(c.StorageBackend, StorageBackendDB)
}

// UsesRedis reports whether cart slots live in redis.
func (c CartConfig) UsesRedis() bool {
	return strings.EqualFold(c.StorageBackend, StorageBackendRedis)
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StorageBackend)) {
	case StorageBackendMemory, StorageBackendRedis, StorageBackendDB:
	default:
		return fmt.Errorf("%s must be one of memory, redis, db (got %q)", EnvCartStorage, c.StorageBackend)
	}
	if len(strings.TrimSpace(c.Currency)) != 3 {
		return fmt.Errorf("%s must be a three-letter currency code", EnvCartCurrency)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%s is required", EnvCartStorageKey)
	}
	if c.IdleTTL <= 0 || (c.SlotTTL > 0 && c.IdleTTL > c.SlotTTL) {
		return fmt.Errorf("%s must be positive and no longer than %s", EnvCartIdleTTL, EnvCartSlotTTL)
	}
	return nil
}

type SessionConfig struct {
	Secret            string `envconfig:"PACKFINDERZ_SESSION_SECRET" required:"true"`
	Issuer            string `envconfig:"PACKFINDERZ_SESSION_ISSUER" default:"packfinderz-cart"`
	ExpirationMinutes int    `envconfig:"PACKFINDERZ_SESSION_EXPIRATION_MINUTES" default:"43200"`
}

// TTL returns the session token lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

type BreakerConfig struct {
	MaxRequests         uint32        `envconfig:"PACKFINDERZ_BREAKER_MAX_REQUESTS" default:"1"`
	Interval            time.Duration `envconfig:"PACKFINDERZ_BREAKER_INTERVAL" default:"30s"`
	Timeout             time.Duration `envconfig:"PACKFINDERZ_BREAKER_TIMEOUT" default:"10s"`
	ConsecutiveFailures uint32        `envconfig:"PACKFINDERZ_BREAKER_CONSECUTIVE_FAILURES" default:"5"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PACKFINDERZ_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PACKFINDERZ_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	CartTopic string `envconfig:"PACKFINDERZ_PUBSUB_CART_TOPIC"`
}

// Enabled reports whether cart events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.CartTopic) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PACKFINDERZ_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
