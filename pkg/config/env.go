package config

const (
	// EnvPrefix is handed to envconfig; every field carries its full name in tags.
	EnvPrefix = "TRADECERT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:tradecert.db?_foreign_keys=on"
)

const (
	EnvAppEnv       = "TRADECERT_APP_ENV"
	EnvPort         = "TRADECERT_APP_PORT"
	EnvDBDSN        = "TRADECERT_DB_DSN"
	EnvDBHost       = "TRADECERT_DB_HOST"
	EnvDBUser       = "TRADECERT_DB_USER"
	EnvDBName       = "TRADECERT_DB_NAME"
	EnvRedisURL     = "TRADECERT_REDIS_URL"
	EnvJWTSecret    = "TRADECERT_JWT_SECRET"
	EnvJWTIssuer    = "TRADECERT_JWT_ISSUER"
	EnvUseSQLite    = "TRADECERT_USE_SQLITE"
	EnvQuotePrefix  = "TRADECERT_QUOTE_NUMBER_PREFIX"
	EnvPaymentTerms = "TRADECERT_INVOICE_PAYMENT_TERMS_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
