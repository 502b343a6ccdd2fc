package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port         int
	GinMode      string
	LogLevel     string
	LogFormat    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	ModelDirs        []string
	StaticDirs       []string
	PythonPath       string
	InferenceTimeout time.Duration

	Fetch FetchSettings
}

// FetchSettings configures the offline artifact fetcher.
type FetchSettings struct {
	Dir     string
	BaseURL string
	Timeout time.Duration
	// FileIDs maps model identifier to remote file id.
	FileIDs map[string]string
}

type ConfigFile struct {
	Server struct {
		Port         int      `yaml:"port"`
		GinMode      string   `yaml:"ginMode"`
		ReadTimeout  string   `yaml:"readTimeout"`
		WriteTimeout string   `yaml:"writeTimeout"`
		StaticDirs   []string `yaml:"staticDirs"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	ML struct {
		ModelDirs        []string `yaml:"modelDirs"`
		PythonPath       string   `yaml:"pythonPath"`
		InferenceTimeout string   `yaml:"inferenceTimeout"`
	} `yaml:"ml"`

	Fetch struct {
		Dir     string            `yaml:"dir"`
		BaseURL string            `yaml:"baseURL"`
		Timeout string            `yaml:"timeout"`
		FileIDs map[string]string `yaml:"fileIDs"`
	} `yaml:"fetch"`
}

// Load reads settings from CONFIG_FILE when set, otherwise from environment
// variables. A .env file in the working directory is applied first.
func Load() (Settings, error) {
	_ = godotenv.Load()

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

	settings := Settings{
		Port:             getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		GinMode:          getEnvOrDefault(common.EnvGinMode, orDefault(config.Server.GinMode, common.DefaultGinMode)),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, orDefault(config.Log.Level, common.DefaultLogLevel)),
		LogFormat:        getEnvOrDefault(common.EnvLogFormat, orDefault(config.Log.Format, common.DefaultLogFormat)),
		ReadTimeout:      getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:     getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, 30*time.Second),
		ModelDirs:        getListFromEnvOrConfig(common.EnvModelDirs, config.ML.ModelDirs, common.DefaultModelDirs),
		StaticDirs:       getListFromEnvOrConfig(common.EnvStaticDirs, config.Server.StaticDirs, common.DefaultStaticDirs),
		PythonPath:       getEnvOrDefault(common.EnvPythonPath, config.ML.PythonPath),
		InferenceTimeout: getDurationFromEnvOrConfig(common.EnvInferenceTimeout, config.ML.InferenceTimeout, 0),
		Fetch: FetchSettings{
			Dir:     getEnvOrDefault(common.EnvFetchDir, orDefault(config.Fetch.Dir, common.DefaultFetchDir)),
			BaseURL: getEnvOrDefault(common.EnvFetchBaseURL, orDefault(config.Fetch.BaseURL, common.DefaultFetchBaseURL)),
			Timeout: getDurationFromEnvOrConfig(common.EnvFetchTimeout, config.Fetch.Timeout, 5*time.Minute),
			FileIDs: fileIDs(config.Fetch.FileIDs),
		},
	}

	alignWriteTimeout(&settings)
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Port:             getIntOrDefault(common.EnvPort, common.DefaultPort),
		GinMode:          getEnvOrDefault(common.EnvGinMode, common.DefaultGinMode),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:        getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		ReadTimeout:      getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:     getDurationOrDefault(common.EnvWriteTimeout, 30*time.Second),
		ModelDirs:        splitOrDefault(os.Getenv(common.EnvModelDirs), common.DefaultModelDirs),
		StaticDirs:       splitOrDefault(os.Getenv(common.EnvStaticDirs), common.DefaultStaticDirs),
		PythonPath:       os.Getenv(common.EnvPythonPath), // optional
		InferenceTimeout: getDurationOrDefault(common.EnvInferenceTimeout, 0),
		Fetch: FetchSettings{
			Dir:     getEnvOrDefault(common.EnvFetchDir, common.DefaultFetchDir),
			BaseURL: getEnvOrDefault(common.EnvFetchBaseURL, common.DefaultFetchBaseURL),
			Timeout: getDurationOrDefault(common.EnvFetchTimeout, 5*time.Minute),
			FileIDs: fileIDs(nil),
		},
	}

	alignWriteTimeout(&settings)
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// Addr returns the listen address for the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// fileIDs merges defaults, config file values and per-model env overrides.
func fileIDs(fromConfig map[string]string) map[string]string {
	ids := make(map[string]string, len(common.DefaultFileIDs))
	for model, id := range common.DefaultFileIDs {
		ids[model] = id
	}
	for model, id := range fromConfig {
		if id != "" {
			ids[model] = id
		}
	}

	envKeys := map[string]string{
		common.ModelRandomForest: common.EnvRandomForestID,
		common.ModelSVM:          common.EnvSVMID,
		common.ModelXGBoost:      common.EnvXGBoostID,
	}
	for model, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			ids[model] = v
		}
	}
	return ids
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
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

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return append([]string(nil), def...)
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListFromEnvOrConfig(key string, configValue, defaultValue []string) []string {
	if env := os.Getenv(key); env != "" {
		return splitOrDefault(env, defaultValue)
	}
	if len(configValue) > 0 {
		return configValue
	}
	return append([]string(nil), defaultValue...)
}

// writeTimeoutMargin is the headroom left for encoding a response once a
// bounded inference call returns.
const writeTimeoutMargin = 5 * time.Second

// alignWriteTimeout raises the HTTP write timeout so that it never expires
// before a bounded inference call does. With inference unbounded the write
// timeout is the effective limit on a prediction request.
func alignWriteTimeout(settings *Settings) {
	if settings.InferenceTimeout <= 0 {
		return
	}
	if floor := settings.InferenceTimeout + writeTimeoutMargin; settings.WriteTimeout < floor {
		settings.WriteTimeout = floor
	}
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	switch settings.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin mode must be debug, release or test, got %q", settings.GinMode)
	}

	switch settings.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", settings.LogFormat)
	}

	if len(settings.ModelDirs) == 0 {
		return fmt.Errorf("at least one model directory must be specified")
	}

	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 15*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 15m, got %v", settings.WriteTimeout)
	}
	if settings.InferenceTimeout < 0 || settings.InferenceTimeout > 10*time.Minute {
		return fmt.Errorf("inference timeout must be between 0 and 10m, got %v", settings.InferenceTimeout)
	}

	if settings.Fetch.Dir == "" {
		return fmt.Errorf("fetch directory cannot be empty")
	}
	if !strings.HasPrefix(settings.Fetch.BaseURL, "http://") && !strings.HasPrefix(settings.Fetch.BaseURL, "https://") {
		return fmt.Errorf("fetch base URL must be http(s), got %q", settings.Fetch.BaseURL)
	}
	if settings.Fetch.Timeout < time.Second || settings.Fetch.Timeout > time.Hour {
		return fmt.Errorf("fetch timeout must be between 1s and 1h, got %v", settings.Fetch.Timeout)
	}
	for _, model := range common.KnownModels {
		if settings.Fetch.FileIDs[model] == "" {
			return fmt.Errorf("fetch file id for %s cannot be empty", model)
		}
	}

	return nil
}
