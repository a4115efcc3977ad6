package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                       = "WBS_APP_ENV"
	EnvLogLevel                     = "WBS_LOG_LEVEL"
	EnvAPIURL                       = "WBS_API_URL"
	EnvAPIURLCompanies              = "WBS_API_URL_COMPANIES"
	EnvAPIToken                     = "WBS_API_TOKEN"
	EnvRateLimitDelay               = "WBS_RATE_LIMIT_DELAY"
	EnvMaxRetries                   = "WBS_MAX_RETRIES"
	EnvGoogleSheetID                = "WBS_GOOGLE_SHEET_ID"
	EnvSheetHeaderRow               = "WBS_SHEET_HEADER_ROW"
	EnvGCPCredentialsJSON           = "WBS_GCP_CREDENTIALS_JSON"
	EnvGoogleApplicationCredentials = "WBS_GOOGLE_APPLICATION_CREDENTIALS"
	EnvRedisURL                     = "WBS_REDIS_URL"
	EnvSyncInterval                 = "WBS_SYNC_INTERVAL"
	EnvSyncJobs                     = "WBS_SYNC_JOBS"
)
