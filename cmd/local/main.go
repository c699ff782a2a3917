package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lambda-ml/cmd"
	"lambda-ml/internal/api"
	"lambda-ml/internal/config"
	"lambda-ml/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Config struct {
	Port int `env:"PORT" envDefault:"3001"`

	TextClassify  config.ModelConfig `envPrefix:"TEXTCLASSIFY_"`
	Sentiment     config.ModelConfig `envPrefix:"SENTIMENT_"`
	Iris          config.ModelConfig `envPrefix:"IRIS_"`
	BreastCancer  config.ModelConfig `envPrefix:"BREASTCANCER_"`
	BankMarketing config.ModelConfig `envPrefix:"BANKMARKETING_"`
	Digits        config.ModelConfig `envPrefix:"DIGITS_"`
	ImageClassify config.ModelConfig `envPrefix:"IMAGECLASSIFY_"`
	ObjectDetect  config.ModelConfig `envPrefix:"OBJECTDETECT_"`

	// Regression functions are served when REGRESSION_BUCKET_NAME is set.
	RegressionBucket string `env:"REGRESSION_BUCKET_NAME"`
	RegressionKey    string `env:"REGRESSION_MODEL_KEY" envDefault:"model.json"`
}

// registry tracks the handlers served locally so their models can be released on shutdown.
type registry struct {
	service  *api.FunctionService
	releases []func()
}

func (r *registry) release() {
	for _, release := range r.releases {
		release()
	}
}

func register[H any](reg *registry, name string, cfg config.ModelConfig, build func(context.Context, config.ModelConfig) (H, error), bind func(H) api.Invocation) {
	if cfg.ModelPath == "" {
		slog.Info("function not configured, skipping", "function", name)
		return
	}
	handler, err := build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("error loading function %s: %v", name, err)
	}
	reg.service.Register(name, bind(handler))
	if r, ok := any(handler).(interface{ Release() }); ok {
		reg.releases = append(reg.releases, r.Release)
	}
	slog.Info("function registered", "function", name)
}

func createServer(env cmd.Environment, cfg Config) (*http.Server, *registry) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	service := api.NewFunctionService()
	reg := &registry{service: service}

	register(reg, "textclassify", cfg.TextClassify, env.NewTextClassify, func(h *handlers.TextClassify) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "sentiment", cfg.Sentiment, env.NewSentiment, func(h *handlers.Sentiment) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "iris", cfg.Iris, env.NewIris, func(h *handlers.Iris) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "breastcancer", cfg.BreastCancer, env.NewBreastCancer, func(h *handlers.BreastCancer) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "bankmarketing", cfg.BankMarketing, env.NewBankMarketing, func(h *handlers.BankMarketing) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "digits", cfg.Digits, env.NewDigits, func(h *handlers.Digits) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "imageclassify", cfg.ImageClassify, env.NewImageClassify, func(h *handlers.ImageClassify) api.Invocation { return api.Bind(h.Handle) })
	register(reg, "objectdetect", cfg.ObjectDetect, env.NewObjectDetect, func(h *handlers.ObjectDetect) api.Invocation { return api.Bind(h.Handle) })

	if cfg.RegressionBucket != "" {
		bucket := config.BucketConfig{BucketName: cfg.RegressionBucket, ModelKey: cfg.RegressionKey}
		if err := env.Store.CreateBucket(context.Background(), bucket.BucketName); err != nil {
			log.Fatalf("error creating regression bucket: %v", err)
		}
		service.Register("regression-train", api.Bind(env.NewRegressionTrain(bucket).Handle))
		service.Register("regression-inference", api.Bind(env.NewRegressionInference(bucket).Handle))
	}

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}, reg
}

func main() {
	cmd.LoadEnvFile()
	env := cmd.Setup()
	cfg := cmd.MustParse[Config]()

	server, reg := createServer(env, cfg)

	// Models are released only after in-flight requests have drained.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
		reg.release()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	<-stopped
	slog.Info("server stopped")
}
