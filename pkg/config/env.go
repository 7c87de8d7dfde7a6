package config

// envconfig reads the explicit tag names, the prefix only matters for
// untagged fields.
const EnvPrefix = "CARINS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:carins.db?_foreign_keys=on"
)

const (
	EnvAppEnv   = "CARINS_APP_ENV"
	EnvPort     = "CARINS_APP_PORT"
	EnvLogLevel = "CARINS_LOG_LEVEL"

	EnvDBDSN    = "CARINS_DB_DSN"
	EnvDBDriver = "CARINS_DB_DRIVER"
	EnvDBHost   = "CARINS_DB_HOST"
	EnvDBPort   = "CARINS_DB_PORT"
	EnvDBUser   = "CARINS_DB_USER"
	EnvDBPass   = "CARINS_DB_PASSWORD"
	EnvDBName   = "CARINS_DB_NAME"

	EnvRedisURL  = "CARINS_REDIS_URL"
	EnvRedisAddr = "CARINS_REDIS_ADDR"

	EnvJWTSecret = "CARINS_JWT_SECRET"
	EnvJWTIssuer = "CARINS_JWT_ISSUER"

	EnvCronRunAt       = "CARINS_CRON_RUN_AT"
	EnvCronRunOnStart  = "CARINS_CRON_RUN_ON_START"
	EnvCronEmbedded    = "CARINS_CRON_EMBEDDED"
	EnvCronLockEnabled = "CARINS_CRON_LOCK_ENABLED"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
