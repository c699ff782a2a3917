package main

import (
	"context"
	"flag"
	"log"

	"lambda-ml/cmd"
	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/core/gbt"
	"lambda-ml/internal/training"
)

func main() {
	defaults := gbt.DefaultParams()

	data := flag.String("data", dataset.WDBCURL, "wdbc.data url or path")
	output := flag.String("output", "bc-gbt-model.json", "where to write the model")
	upload := flag.String("upload", "", "optional s3://bucket/key to upload the model to")
	trees := flag.Int("trees", defaults.NumTrees, "number of boosting rounds")
	depth := flag.Int("max-depth", defaults.MaxDepth, "maximum tree depth")
	learningRate := flag.Float64("learning-rate", defaults.LearningRate, "shrinkage applied to every tree")

	cmd.LoadEnvFile()
	env := cmd.Setup()
	ctx := context.Background()

	params := defaults
	params.NumTrees = *trees
	params.MaxDepth = *depth
	params.LearningRate = *learningRate

	model, accuracy, err := training.TrainBreastCancer(ctx, *data, training.BreastCancerSplit, params)
	if err != nil {
		log.Fatalf("error training breast cancer model: %v", err)
	}
	log.Printf("Model Accuracy: %.2f%%", accuracy*100)

	if err := model.Save(*output); err != nil {
		log.Fatalf("error saving model: %v", err)
	}
	log.Printf("Model file %s saved successfully", *output)

	if *upload != "" {
		if err := cmd.UploadArtifact(ctx, env.Store, *output, *upload); err != nil {
			log.Fatalf("%v", err)
		}
	}
}
