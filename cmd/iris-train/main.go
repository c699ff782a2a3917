package main

import (
	"context"
	"flag"
	"log"

	"lambda-ml/cmd"
	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/training"
)

func main() {
	data := flag.String("data", dataset.IrisURL, "iris.data url or path")
	output := flag.String("output", "iris_classifier_knn.json", "where to write the model")
	upload := flag.String("upload", "", "optional s3://bucket/key to upload the model to")

	cmd.LoadEnvFile()
	env := cmd.Setup()
	ctx := context.Background()

	model, accuracy, err := training.TrainIris(ctx, *data, training.IrisSplit)
	if err != nil {
		log.Fatalf("error training iris model: %v", err)
	}
	log.Printf("Model Accuracy: %v", accuracy)

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
