package config

const EnvPrefix = "PACKFINDERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendDB     = "db"
)

const (
	EnvAppEnv = "PACKFINDERZ_APP_ENV"
	EnvPort   = "PACKFINDERZ_APP_PORT"

	EnvCORSOrigins = "PACKFINDERZ_CORS_ORIGINS"

	EnvDBDSN    = "PACKFINDERZ_DB_DSN"
	EnvDBDriver = "PACKFINDERZ_DB_DRIVER"
	EnvDBHost   = "PACKFINDERZ_DB_HOST"
	EnvDBUser   = "PACKFINDERZ_DB_USER"
	EnvDBName   = "PACKFINDERZ_DB_NAME"

	EnvRedisURL  = "PACKFINDERZ_REDIS_URL"
	EnvRedisAddr = "PACKFINDERZ_REDIS_ADDR"

	EnvCartCurrency   = "PACKFINDERZ_CART_CURRENCY"
	EnvCartStorage    = "PACKFINDERZ_CART_STORAGE"
	EnvCartStorageKey = "PACKFINDERZ_CART_STORAGE_KEY"
	EnvCartSlotTTL    = "PACKFINDERZ_CART_SLOT_TTL"
	EnvCartIdleTTL    = "PACKFINDERZ_CART_IDLE_TTL"

	EnvSessionSecret = "PACKFINDERZ_SESSION_SECRET"

	EnvPubSubCartTopic = "PACKFINDERZ_PUBSUB_CART_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
