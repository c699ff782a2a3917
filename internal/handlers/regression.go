package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"lambda-ml/internal/core/linear"
	"lambda-ml/internal/training"

	"github.com/aws/aws-lambda-go/events"
)

// decodeBody unmarshals an API Gateway body into v. Clients that post an already encoded
// JSON document as a JSON string are accepted as well.
func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return invalid("body is not valid base64: %v", err)
		}
		body = decoded
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return missing("body")
	}

	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return invalid("body: %v", err)
		}
		body = []byte(inner)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return invalid("body: %v", err)
	}
	return nil
}

func jsonResponse(body any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("error encoding response body: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}, nil
}

type TrainingData struct {
	X [][]float64 `json:"X"`
	Y []float64   `json:"y"`
}

type trainingBody struct {
	Data *TrainingData `json:"data"`
}

type RegressionTrain struct {
	Trainer *training.RegressionTrainer
}

func (h *RegressionTrain) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	slog.Info("received event", "path", req.Path, "method", req.HTTPMethod, "request_id", req.RequestContext.RequestID)

	var body trainingBody
	if err := decodeBody(req, &body); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	switch {
	case body.Data == nil:
		return events.APIGatewayProxyResponse{}, missing("data")
	case body.Data.X == nil:
		return events.APIGatewayProxyResponse{}, missing("data.X")
	case body.Data.Y == nil:
		return events.APIGatewayProxyResponse{}, missing("data.y")
	}

	report, err := h.Trainer.Train(ctx, body.Data.X, body.Data.Y)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return jsonResponse(report)
}

// RegressorSource yields the current regression model.
type RegressorSource interface {
	Get(ctx context.Context) (*linear.Model, error)
}

type inferenceBody struct {
	Data [][]float64 `json:"data"`
}

// RegressionPrediction holds the predictions serialized a second time, as a JSON string.
type RegressionPrediction struct {
	Prediction string `json:"prediction"`
}

type RegressionInference struct {
	Models RegressorSource
}

func (h *RegressionInference) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	slog.Info("received event", "path", req.Path, "method", req.HTTPMethod, "request_id", req.RequestContext.RequestID)

	var body inferenceBody
	if err := decodeBody(req, &body); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if len(body.Data) == 0 {
		return events.APIGatewayProxyResponse{}, missing("data")
	}

	model, err := h.Models.Get(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	preds, err := model.Predict(body.Data)
	if err != nil {
		return events.APIGatewayProxyResponse{}, invalid("%v", err)
	}
	slog.Info("prediction", "data", body.Data, "prediction", preds)

	encoded, err := json.Marshal(preds)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("error encoding predictions: %w", err)
	}
	return jsonResponse(RegressionPrediction{Prediction: string(encoded)})
}
