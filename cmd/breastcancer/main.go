package main

import (
	"context"
	"log"

	"lambda-ml/cmd"
	"lambda-ml/internal/config"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cmd.LoadEnvFile()
	env := cmd.Setup()

	handler, err := env.NewBreastCancer(context.Background(), cmd.MustParse[config.ModelConfig]())
	if err != nil {
		log.Fatalf("error loading breast cancer model: %v", err)
	}

	lambda.Start(handler.Handle)
}
