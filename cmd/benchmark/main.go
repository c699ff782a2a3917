package main

import (
	"context"
	"flag"
	"log"
	"os"

	"lambda-ml/cmd"
	"lambda-ml/internal/benchmark"
	"lambda-ml/internal/config"
	"lambda-ml/internal/storage"

	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
)

func main() {
	baseline := flag.String("x86", "", "ARN of the x86_64 function")
	candidate := flag.String("arm64", "", "ARN of the arm64 function")
	eventPath := flag.String("event", "events/event.json", "event payload sent to both functions")
	calls := flag.Int("calls", benchmark.DefaultCalls, "number of measured calls per function")

	cmd.LoadEnvFile()
	cmd.InitLogging(cmd.MustParse[config.RuntimeConfig]().Level())

	payload, err := os.ReadFile(*eventPath)
	if err != nil {
		log.Fatalf("error reading event: %v", err)
	}

	storageCfg := cmd.MustParse[config.StorageConfig]()
	ctx := context.Background()
	awsCfg, err := storage.LoadAWSConfig(ctx, "", storageCfg.S3Region, nil)
	if err != nil {
		log.Fatalf("error loading aws config: %v", err)
	}
	invoker := benchmark.NewLambdaInvoker(awslambda.NewFromConfig(awsCfg))

	log.Printf("Warming x86_64 and arm64 Lambda Functions")
	res, err := benchmark.Run(ctx, invoker, benchmark.Config{
		Baseline:  *baseline,
		Candidate: *candidate,
		Payload:   payload,
		Calls:     *calls,
		Progress:  os.Stderr,
	})
	if err != nil {
		log.Fatalf("benchmark failed: %v", err)
	}

	res.Report(os.Stdout, "x86_64", "arm64")
}
