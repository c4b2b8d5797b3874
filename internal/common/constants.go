package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvPort            = "PORT"
	EnvModelPath       = "MODEL_PATH"
	EnvDataPath        = "DATA_PATH"
	EnvSamples         = "SAMPLES"
	EnvSeed            = "SEED"
	EnvNEstimators     = "N_ESTIMATORS"
	EnvLearningRate    = "LEARNING_RATE"
	EnvMaxDepth        = "MAX_DEPTH"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvCORSOrigin      = "CORS_ORIGIN"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvMetricsEnabled  = "METRICS_ENABLED"
	EnvHistoryEnabled  = "HISTORY_ENABLED"
	EnvWebsiteSiteName = "WEBSITE_SITE_NAME" // set by Azure App Service
)

// Configuration defaults
const (
	DefaultPort            = 8000
	DefaultModelPath       = "car_price_model.json"
	DefaultHostedModelPath = "/home/car_price_model.json"
	DefaultDataPath        = "data"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultCORSOrigin      = "*"
	DefaultHistoryLimit    = 20
	MaxHistoryLimit        = 500
	MaxRequestBodyBytes    = 16 << 20
)

// Validation constants
const (
	MinPort        = 1
	MaxPort        = 65535
	MinSamples     = 10
	MaxSamples     = 1_000_000
	MaxNEstimators = 5000
	MaxTreeDepth   = 32
)
