package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"lambda-ml/internal/config"
	"lambda-ml/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// InitLogging writes JSON records to stdout, which the Lambda runtime forwards to CloudWatch.
func InitLogging(level slog.Level) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func NewStorageProvider(cfg config.StorageConfig) (storage.Provider, error) {
	if cfg.LocalStorageDir != "" {
		slog.Info("using local object store", "dir", cfg.LocalStorageDir)
		return storage.NewLocalProvider(cfg.LocalStorageDir), nil
	}
	return storage.NewS3Provider(storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

// Environment is the process wide setup every function binary shares.
type Environment struct {
	Runtime config.RuntimeConfig
	Store   storage.Provider
}

// Setup parses the shared configuration, configures logging and connects the object store.
// Any failure is fatal: a function that cannot start must not accept events.
func Setup() Environment {
	runtime, err := config.Parse[config.RuntimeConfig]()
	if err != nil {
		log.Fatalf("%v", err)
	}
	InitLogging(runtime.Level())

	storageCfg, err := config.Parse[config.StorageConfig]()
	if err != nil {
		log.Fatalf("%v", err)
	}
	store, err := NewStorageProvider(storageCfg)
	if err != nil {
		log.Fatalf("error creating object store: %v", err)
	}

	return Environment{Runtime: runtime, Store: store}
}

func MustParse[T any]() T {
	cfg, err := config.Parse[T]()
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

// UploadArtifact copies a locally written artifact to an s3://bucket/key reference.
func UploadArtifact(ctx context.Context, store storage.Provider, localPath, ref string) error {
	bucket, key, err := storage.ParseS3Path(ref)
	if err != nil {
		return err
	}
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("error opening artifact: %w", err)
	}
	defer file.Close()

	if err := store.PutObject(ctx, bucket, key, file); err != nil {
		return fmt.Errorf("error uploading artifact to %s: %w", ref, err)
	}
	slog.Info("artifact uploaded", "ref", ref)
	return nil
}
