package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// StorageConfig selects and configures the object store. LOCAL_STORAGE_DIR takes precedence
// over S3 and is meant for local runs.
type StorageConfig struct {
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	LocalStorageDir   string `env:"LOCAL_STORAGE_DIR"`
}

type RuntimeConfig struct {
	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB" envDefault:"/opt/onnxruntime/lib/libonnxruntime.so"`
	TmpDir           string `env:"TMP_DIR" envDefault:"/tmp"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

// ModelConfig locates a model artifact. MODEL_PATH may be a local path or an s3:// reference.
type ModelConfig struct {
	ModelPath     string `env:"MODEL_PATH"`
	ModelType     string `env:"MODEL_TYPE"`
	LabelsPath    string `env:"LABELS_PATH"`
	TokenizerPath string `env:"TOKENIZER_PATH"`

	// Graph specific knobs; zero values select the loader defaults.
	InputName       string `env:"INPUT_NAME"`
	OutputName      string `env:"OUTPUT_NAME"`
	UseTokenTypeIds bool   `env:"USE_TOKEN_TYPE_IDS"`
	MaxLength       int    `env:"MAX_LENGTH"`
	LabelOffset     int    `env:"LABEL_OFFSET"`
}

// BucketConfig names the object store location shared by the online training and
// inference functions.
type BucketConfig struct {
	BucketName string `env:"BUCKET_NAME,required,notEmpty"`
	ModelKey   string `env:"MODEL_KEY" envDefault:"model.json"`
}

func Parse[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

func (c RuntimeConfig) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
