package config

const EnvPrefix = "BACKHOUSE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:backhouse.db?_foreign_keys=on"
)

const (
	EnvAppEnv     = "BACKHOUSE_APP_ENV"
	EnvDBDSN      = "BACKHOUSE_DB_DSN"
	EnvDBDriver   = "BACKHOUSE_DB_DRIVER"
	EnvDBHost     = "BACKHOUSE_DB_HOST"
	EnvDBUser     = "BACKHOUSE_DB_USER"
	EnvDBName     = "BACKHOUSE_DB_NAME"
	EnvRedisURL   = "BACKHOUSE_REDIS_URL"
	EnvUseSQLite  = "BACKHOUSE_USE_SQLITE"
	EnvCurrency   = "BACKHOUSE_CURRENCY"
	EnvMoneyScale = "BACKHOUSE_MONEY_SCALE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
