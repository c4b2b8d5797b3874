package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"carprice/internal/car"
	"carprice/internal/common"
	"carprice/internal/gbm"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port           int
	ModelPath      string
	DataPath       string
	HistoryEnabled bool
	Samples        int
	Seed           uint64
	Boosting       gbm.Config
	LogLevel       string
	LogFormat      string
	CORSOrigin     string
	RequestTimeout time.Duration
	MetricsEnabled bool
}

type ConfigFile struct {
	Server struct {
		Port           int    `yaml:"port"`
		CORSOrigin     string `yaml:"corsOrigin"`
		RequestTimeout string `yaml:"requestTimeout"`
		MetricsEnabled *bool  `yaml:"metricsEnabled"`
	} `yaml:"server"`

	Model struct {
		Path         string  `yaml:"path"`
		Samples      int     `yaml:"samples"`
		Seed         *uint64 `yaml:"seed"`
		NEstimators  int     `yaml:"nEstimators"`
		LearningRate float64 `yaml:"learningRate"`
		MaxDepth     int     `yaml:"maxDepth"`
	} `yaml:"model"`

	History struct {
		Enabled  *bool  `yaml:"enabled"`
		DataPath string `yaml:"dataPath"`
	} `yaml:"history"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment alone. A .env file in the working directory is applied first
// without overriding variables that are already set.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	boost := gbm.DefaultConfig()
	if config.Model.NEstimators != 0 {
		boost.NEstimators = config.Model.NEstimators
	}
	if config.Model.LearningRate != 0 {
		boost.LearningRate = config.Model.LearningRate
	}
	if config.Model.MaxDepth != 0 {
		boost.MaxDepth = config.Model.MaxDepth
	}
	boost.NEstimators = getIntOrDefault(common.EnvNEstimators, boost.NEstimators)
	boost.LearningRate = getFloatOrDefault(common.EnvLearningRate, boost.LearningRate)
	boost.MaxDepth = getIntOrDefault(common.EnvMaxDepth, boost.MaxDepth)

	seed := car.DefaultSeed
	if config.Model.Seed != nil {
		seed = *config.Model.Seed
	}

	settings := Settings{
		Port:           getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, defaultModelPath())),
		DataPath:       getEnvOrDefault(common.EnvDataPath, orDefault(config.History.DataPath, common.DefaultDataPath)),
		HistoryEnabled: getBoolOrDefault(common.EnvHistoryEnabled, boolOrDefault(config.History.Enabled, true)),
		Samples:        getIntFromEnvOrConfig(common.EnvSamples, config.Model.Samples, car.DefaultSamples),
		Seed:           getUintOrDefault(common.EnvSeed, seed),
		Boosting:       boost,
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:      getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		CORSOrigin:     getEnvOrDefault(common.EnvCORSOrigin, orDefault(config.Server.CORSOrigin, common.DefaultCORSOrigin)),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, timeout),
		MetricsEnabled: getBoolOrDefault(common.EnvMetricsEnabled, boolOrDefault(config.Server.MetricsEnabled, true)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	boost := gbm.DefaultConfig()
	boost.NEstimators = getIntOrDefault(common.EnvNEstimators, boost.NEstimators)
	boost.LearningRate = getFloatOrDefault(common.EnvLearningRate, boost.LearningRate)
	boost.MaxDepth = getIntOrDefault(common.EnvMaxDepth, boost.MaxDepth)

	settings := Settings{
		Port:           getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, defaultModelPath()),
		DataPath:       getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		HistoryEnabled: getBoolOrDefault(common.EnvHistoryEnabled, true),
		Samples:        getIntOrDefault(common.EnvSamples, car.DefaultSamples),
		Seed:           getUintOrDefault(common.EnvSeed, car.DefaultSeed),
		Boosting:       boost,
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:      getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		CORSOrigin:     getEnvOrDefault(common.EnvCORSOrigin, common.DefaultCORSOrigin),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, 10*time.Second),
		MetricsEnabled: getBoolOrDefault(common.EnvMetricsEnabled, true),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// defaultModelPath keeps the snapshot on the persistent /home share when
// running on Azure App Service.
func defaultModelPath() string {
	if os.Getenv(common.EnvWebsiteSiteName) != "" {
		return common.DefaultHostedModelPath
	}
	return common.DefaultModelPath
}

// Addr is the listen address for the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUintOrDefault(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if strings.TrimSpace(settings.ModelPath) == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.HistoryEnabled && strings.TrimSpace(settings.DataPath) == "" {
		return fmt.Errorf("data path is required when history is enabled")
	}

	if settings.Samples < common.MinSamples || settings.Samples > common.MaxSamples {
		return fmt.Errorf("samples must be between %d and %d, got %d", common.MinSamples, common.MaxSamples, settings.Samples)
	}
	if settings.Boosting.NEstimators <= 0 || settings.Boosting.NEstimators > common.MaxNEstimators {
		return fmt.Errorf("n_estimators must be between 1 and %d, got %d", common.MaxNEstimators, settings.Boosting.NEstimators)
	}
	if settings.Boosting.LearningRate <= 0 || settings.Boosting.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", settings.Boosting.LearningRate)
	}
	if settings.Boosting.MaxDepth <= 0 || settings.Boosting.MaxDepth > common.MaxTreeDepth {
		return fmt.Errorf("max depth must be between 1 and %d, got %d", common.MaxTreeDepth, settings.Boosting.MaxDepth)
	}

	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error; got %q", settings.LogLevel)
	}
	if settings.LogFormat != "json" && settings.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	if settings.RequestTimeout < time.Second || settings.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request timeout must be between 1s and 5m, got %v", settings.RequestTimeout)
	}
	return nil
}
