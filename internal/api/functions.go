package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Invocation runs one function against a raw event payload.
type Invocation func(ctx context.Context, payload []byte) (any, error)

// Bind adapts a typed handler, as passed to lambda.Start, into an Invocation.
func Bind[E, R any](handle func(context.Context, E) (R, error)) Invocation {
	return func(ctx context.Context, payload []byte) (any, error) {
		var event E
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "unable to parse event: %v", err)
		}
		res, err := handle(ctx, event)
		if err != nil {
			return nil, handlerError(err)
		}
		return res, nil
	}
}

var functionName = regexp.MustCompile(`^[\w-]+$`)

// FunctionService serves registered functions over HTTP so they can be exercised without a
// Lambda runtime.
type FunctionService struct {
	functions map[string]Invocation
}

func NewFunctionService() *FunctionService {
	return &FunctionService{functions: map[string]Invocation{}}
}

func (s *FunctionService) Register(name string, fn Invocation) {
	if !functionName.MatchString(name) {
		panic("invalid function name " + name)
	}
	s.functions[name] = fn
}

func (s *FunctionService) Names() []string {
	names := make([]string, 0, len(s.functions))
	for name := range s.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *FunctionService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/functions", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListFunctions))
		r.Post("/{name}", RestHandler(s.Invoke))
	})
}

type ListFunctionsResponse struct {
	Functions []string `json:"functions"`
}

func (s *FunctionService) ListFunctions(r *http.Request) (any, error) {
	return ListFunctionsResponse{Functions: s.Names()}, nil
}

func (s *FunctionService) Invoke(r *http.Request) (any, error) {
	name := chi.URLParam(r, "name")
	fn, ok := s.functions[name]
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "function '%s' not found", name)
	}

	payload, err := ParseRequest[json.RawMessage](r)
	if err != nil {
		return nil, err
	}

	requestId := uuid.NewString()
	ctx := lambdacontext.NewContext(r.Context(), &lambdacontext.LambdaContext{AwsRequestID: requestId})

	start := time.Now()
	res, err := fn(ctx, payload)
	slog.Info("function invoked", "function", name, "request_id", requestId, "duration", time.Since(start), "error", err)
	if err != nil {
		return nil, err
	}

	// Functions that return a serialized document are passed through unchanged.
	if s, ok := res.(string); ok && json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}
	return res, nil
}
