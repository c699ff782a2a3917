package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"lambda-ml/internal/artifact"
	"lambda-ml/internal/config"
	"lambda-ml/internal/core"
	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/core/imaging"
	"lambda-ml/internal/core/linear"
	"lambda-ml/internal/core/xgboost"
	"lambda-ml/internal/handlers"
	"lambda-ml/internal/training"
)

func (e Environment) resolve(ctx context.Context, ref, what string) (string, error) {
	path, err := artifact.Resolve(ctx, e.Store, ref, e.Runtime.TmpDir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return path, nil
}

// labels loads LABELS_PATH, or the transformers config.json exported next to the model when
// it is unset.
func (e Environment) labels(ctx context.Context, cfg config.ModelConfig, modelPath string) ([]string, error) {
	path, err := artifact.ResolveOptional(ctx, e.Store, cfg.LabelsPath, e.Runtime.TmpDir)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(modelPath), "config.json")
	}
	return core.LoadLabels(path)
}

func (e Environment) textClassifier(ctx context.Context, cfg config.ModelConfig) (*core.OnnxTextClassifier, error) {
	if err := core.InitOnnxRuntime(e.Runtime.OnnxRuntimeDylib); err != nil {
		return nil, err
	}
	modelPath, err := e.resolve(ctx, cfg.ModelPath, "model")
	if err != nil {
		return nil, err
	}
	tokenizerPath, err := e.resolve(ctx, cfg.TokenizerPath, "tokenizer")
	if err != nil {
		return nil, err
	}
	labels, err := e.labels(ctx, cfg, modelPath)
	if err != nil {
		return nil, err
	}
	return core.LoadOnnxTextClassifier(core.TextModelConfig{
		ModelPath:       modelPath,
		TokenizerPath:   tokenizerPath,
		Labels:          labels,
		UseTokenTypeIds: cfg.UseTokenTypeIds,
		MaxLength:       cfg.MaxLength,
	})
}

func (e Environment) NewTextClassify(ctx context.Context, cfg config.ModelConfig) (*handlers.TextClassify, error) {
	model, err := e.textClassifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &handlers.TextClassify{Model: model}, nil
}

func (e Environment) NewSentiment(ctx context.Context, cfg config.ModelConfig) (*handlers.Sentiment, error) {
	model, err := e.textClassifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &handlers.Sentiment{Model: model}, nil
}

func (e Environment) classifier(ctx context.Context, cfg config.ModelConfig, defaultType core.ModelType) (core.Classifier, error) {
	modelType := core.ModelType(cfg.ModelType)
	if modelType == "" {
		modelType = defaultType
	}
	path, err := e.resolve(ctx, cfg.ModelPath, "model")
	if err != nil {
		return nil, err
	}
	return core.LoadClassifier(modelType, path)
}

func (e Environment) NewIris(ctx context.Context, cfg config.ModelConfig) (*handlers.Iris, error) {
	model, err := e.classifier(ctx, cfg, core.KNN)
	if err != nil {
		return nil, err
	}
	return &handlers.Iris{Model: model}, nil
}

func (e Environment) NewBreastCancer(ctx context.Context, cfg config.ModelConfig) (*handlers.BreastCancer, error) {
	model, err := e.classifier(ctx, cfg, core.GBT)
	if err != nil {
		return nil, err
	}
	// Raw boosters carry no column names; requests use the wdbc ones.
	if booster, ok := model.(*xgboost.Booster); ok {
		if _, err := booster.WithFeatureNames(dataset.WDBCColumns[2:]); err != nil {
			return nil, err
		}
	}
	return &handlers.BreastCancer{Model: model}, nil
}

func (e Environment) NewBankMarketing(ctx context.Context, cfg config.ModelConfig) (*handlers.BankMarketing, error) {
	model, err := e.classifier(ctx, cfg, core.XGBoost)
	if err != nil {
		return nil, err
	}
	return &handlers.BankMarketing{Store: e.Store, Model: model, TmpDir: e.Runtime.TmpDir}, nil
}

func (e Environment) NewDigits(ctx context.Context, cfg config.ModelConfig) (*handlers.Digits, error) {
	if err := core.InitOnnxRuntime(e.Runtime.OnnxRuntimeDylib); err != nil {
		return nil, err
	}
	path, err := e.resolve(ctx, cfg.ModelPath, "model")
	if err != nil {
		return nil, err
	}
	model, err := core.LoadOnnxDenseModel(core.DenseModelConfig{
		ModelPath:  path,
		InputName:  cfg.InputName,
		OutputName: cfg.OutputName,
	})
	if err != nil {
		return nil, err
	}
	return &handlers.Digits{Store: e.Store, Model: model, TmpDir: e.Runtime.TmpDir}, nil
}

func (e Environment) NewImageClassify(ctx context.Context, cfg config.ModelConfig) (*handlers.ImageClassify, error) {
	if err := core.InitOnnxRuntime(e.Runtime.OnnxRuntimeDylib); err != nil {
		return nil, err
	}
	path, err := e.resolve(ctx, cfg.ModelPath, "model")
	if err != nil {
		return nil, err
	}
	labels, err := e.labels(ctx, cfg, path)
	if err != nil {
		return nil, err
	}
	model, err := core.LoadOnnxImageClassifier(core.ImageModelConfig{
		ModelPath:  path,
		Labels:     labels,
		InputName:  cfg.InputName,
		OutputName: cfg.OutputName,
	})
	if err != nil {
		return nil, err
	}
	return &handlers.ImageClassify{Fetcher: imaging.NewHTTPFetcher(), Model: model}, nil
}

func (e Environment) NewObjectDetect(ctx context.Context, cfg config.ModelConfig) (*handlers.ObjectDetect, error) {
	if err := core.InitOnnxRuntime(e.Runtime.OnnxRuntimeDylib); err != nil {
		return nil, err
	}
	path, err := e.resolve(ctx, cfg.ModelPath, "model")
	if err != nil {
		return nil, err
	}
	labels, err := e.labels(ctx, cfg, path)
	if err != nil {
		return nil, err
	}
	model, err := core.LoadOnnxObjectDetector(core.DetectorConfig{
		ModelPath:   path,
		Labels:      labels,
		LabelOffset: cfg.LabelOffset,
	})
	if err != nil {
		return nil, err
	}
	return &handlers.ObjectDetect{Fetcher: imaging.NewHTTPFetcher(), Model: model}, nil
}

func (e Environment) NewRegressionTrain(cfg config.BucketConfig) *handlers.RegressionTrain {
	return &handlers.RegressionTrain{Trainer: &training.RegressionTrainer{
		Store:  e.Store,
		Bucket: cfg.BucketName,
		Key:    cfg.ModelKey,
	}}
}

func (e Environment) NewRegressionInference(cfg config.BucketConfig) *handlers.RegressionInference {
	return &handlers.RegressionInference{Models: artifact.NewCache(e.Store, cfg.BucketName, cfg.ModelKey, decodeLinear)}
}

func decodeLinear(data []byte) (*linear.Model, error) {
	return linear.Load(bytes.NewReader(data))
}
