package config

// EnvPrefix namespaces every environment variable consumed by envconfig.
const EnvPrefix = "GROCERLY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "GROCERLY_APP_ENV"
	EnvDBDSN  = "GROCERLY_DB_DSN"
	EnvDBHost = "GROCERLY_DB_HOST"
	EnvDBUser = "GROCERLY_DB_USER"
	EnvDBName = "GROCERLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
