package benchmark

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logTail(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestParseDuration(t *testing.T) {
	tail := logTail("START RequestId: abc\nEND RequestId: abc\nREPORT RequestId: abc\tDuration: 12.34 ms\tBilled Duration: 13 ms\tMemory Size: 128 MB")
	d, err := ParseDuration(tail)
	require.NoError(t, err)
	assert.InDelta(t, 12.34, d, 1e-9)

	_, err = ParseDuration(logTail("no report line"))
	assert.ErrorIs(t, err, ErrNoDuration)

	_, err = ParseDuration("%%%")
	assert.Error(t, err)
}

type fakeInvoker struct {
	durations map[string]float64
	calls     map[string]int
}

func (f *fakeInvoker) Invoke(ctx context.Context, function string, payload []byte) (float64, error) {
	f.calls[function]++
	d, ok := f.durations[function]
	if !ok {
		return 0, errors.New("unknown function")
	}
	return d, nil
}

func TestRun(t *testing.T) {
	inv := &fakeInvoker{
		durations: map[string]float64{"x86": 100, "arm": 80},
		calls:     map[string]int{},
	}

	res, err := Run(context.Background(), inv, Config{Baseline: "x86", Candidate: "arm", Calls: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, inv.calls["x86"])
	assert.Equal(t, 11, inv.calls["arm"])
	assert.InDelta(t, 100, res.BaselineAvgMs, 1e-9)
	assert.InDelta(t, 80, res.CandidateAvgMs, 1e-9)
	assert.InDelta(t, 0.2, res.ImprovementFactor, 1e-9)

	var out bytes.Buffer
	res.Report(&out, "x86_64", "arm64")
	assert.Contains(t, out.String(), "Average duration x86_64: 100.00 ms")
	assert.Contains(t, out.String(), "Improvement of arm64 over x86_64: 20%")

	_, err = Run(context.Background(), inv, Config{Baseline: "x86", Candidate: "missing", Calls: 1})
	assert.Error(t, err)

	_, err = Run(context.Background(), inv, Config{Baseline: "x86"})
	assert.Error(t, err)
}

type fakeLambda struct {
	out *awslambda.InvokeOutput
	in  *awslambda.InvokeInput
}

func (f *fakeLambda) Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error) {
	f.in = params
	return f.out, nil
}

func TestLambdaInvoker(t *testing.T) {
	client := &fakeLambda{out: &awslambda.InvokeOutput{
		StatusCode: 200,
		LogResult:  aws.String(logTail("REPORT RequestId: x\tDuration: 5.50 ms")),
	}}
	inv := NewLambdaInvoker(client)

	d, err := inv.Invoke(context.Background(), "arn:fn", []byte(`{"a": 1}`))
	require.NoError(t, err)
	assert.InDelta(t, 5.5, d, 1e-9)
	assert.Equal(t, "arn:fn", aws.ToString(client.in.FunctionName))
	assert.Equal(t, "Tail", string(client.in.LogType))

	client.out = &awslambda.InvokeOutput{FunctionError: aws.String("Unhandled")}
	_, err = inv.Invoke(context.Background(), "arn:fn", nil)
	assert.ErrorIs(t, err, ErrFunctionError)
}
