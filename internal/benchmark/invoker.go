package benchmark

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

var (
	ErrNoDuration    = errors.New("no duration in invocation log")
	ErrFunctionError = errors.New("function returned an error")
)

var durationPattern = regexp.MustCompile(`Duration: (\d+\.\d+) ms`)

// ParseDuration extracts the billed run time in milliseconds from a base64 encoded log tail.
func ParseDuration(logResult string) (float64, error) {
	raw, err := base64.StdEncoding.DecodeString(logResult)
	if err != nil {
		return 0, fmt.Errorf("error decoding log result: %w", err)
	}
	match := durationPattern.FindSubmatch(raw)
	if match == nil {
		return 0, ErrNoDuration
	}
	return strconv.ParseFloat(string(match[1]), 64)
}

// Invoker runs one synchronous invocation and reports how long the function ran, in ms.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload []byte) (float64, error)
}

type LambdaApi interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

type LambdaInvoker struct {
	client LambdaApi
}

var _ Invoker = (*LambdaInvoker)(nil)

func NewLambdaInvoker(client LambdaApi) *LambdaInvoker {
	return &LambdaInvoker{client: client}
}

func (l *LambdaInvoker) Invoke(ctx context.Context, function string, payload []byte) (float64, error) {
	out, err := l.client.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(function),
		InvocationType: types.InvocationTypeRequestResponse,
		LogType:        types.LogTypeTail,
		Payload:        payload,
	})
	if err != nil {
		return 0, fmt.Errorf("error invoking %s: %w", function, err)
	}
	if out.FunctionError != nil {
		return 0, fmt.Errorf("%w: %s: %s", ErrFunctionError, function, aws.ToString(out.FunctionError))
	}
	if out.LogResult == nil {
		return 0, fmt.Errorf("%w: %s returned no log tail", ErrNoDuration, function)
	}
	return ParseDuration(*out.LogResult)
}
