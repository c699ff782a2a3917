package main

import (
	"lambda-ml/cmd"
	"lambda-ml/internal/config"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cmd.LoadEnvFile()
	env := cmd.Setup()

	handler := env.NewRegressionTrain(cmd.MustParse[config.BucketConfig]())

	lambda.Start(handler.Handle)
}
