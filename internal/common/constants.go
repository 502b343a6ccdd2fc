package common

// Model identifiers known to the registry
const (
	ModelRandomForest = "random_forest"
	ModelSVM          = "svm"
	ModelXGBoost      = "xgboost"

	// DefaultModel serves requests whose model_name is unknown.
	DefaultModel = ModelRandomForest
)

// KnownModels lists the model identifiers in registry order.
var KnownModels = []string{ModelRandomForest, ModelSVM, ModelXGBoost}

// ArtifactSuffix is appended to a model identifier to form its artifact file name.
const ArtifactSuffix = "_model.pkl"

// ArtifactFile returns the artifact file name for a model identifier.
func ArtifactFile(model string) string {
	return model + ArtifactSuffix
}

// Environment variable keys
const (
	EnvConfigFile       = "CONFIG_FILE"
	EnvPort             = "PORT"
	EnvGinMode          = "GIN_MODE"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvModelDirs        = "MODEL_DIRS"
	EnvStaticDirs       = "STATIC_DIRS"
	EnvPythonPath       = "PYTHON_PATH"
	EnvInferenceTimeout = "INFERENCE_TIMEOUT"
	EnvReadTimeout      = "READ_TIMEOUT"
	EnvWriteTimeout     = "WRITE_TIMEOUT"
	EnvFetchDir         = "FETCH_DIR"
	EnvFetchBaseURL     = "FETCH_BASE_URL"
	EnvFetchTimeout     = "FETCH_TIMEOUT"
	EnvRandomForestID   = "RANDOM_FOREST_FILE_ID"
	EnvSVMID            = "SVM_FILE_ID"
	EnvXGBoostID        = "XGBOOST_FILE_ID"
)

// Configuration defaults
const (
	DefaultPort         = 8000
	DefaultGinMode      = "release"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultFetchDir     = "models"
	DefaultFetchBaseURL = "https://drive.google.com/uc"
)

// Default artifact locations, tried in order.
var (
	DefaultModelDirs  = []string{"models", "/app/models", "/workspace/alzheimer_predictor/models", "../models"}
	DefaultStaticDirs = []string{"static", "web/static", "/workspace/alzheimer_predictor/static"}
)

// Default Google Drive file ids of the published artifacts.
var DefaultFileIDs = map[string]string{
	ModelRandomForest: "1huELShO1nGgwB25RN1G1CDAEc7YWq3jy",
	ModelSVM:          "1RkVQUIKIGdy4GddYsp0tabXOMvUnU9Y_",
	ModelXGBoost:      "1V7NuB18OTdEXw5LCZMCCPmhmTjgsMkzV",
}

// Validation constants
const (
	MinPort = 1024
	MaxPort = 65535
)
