// Package handlers adapts host events to model calls and serializes their results. Every
// handler holds models loaded at process start and performs exactly one prediction per event.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidEvent = errors.New("invalid event")
)

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

func missing(field string) error {
	return &MissingFieldError{Field: field}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...))
}

// Envelope is the HTTP style response some functions return; Body holds serialized JSON.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func newEnvelope(body any) (Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("error encoding response body: %w", err)
	}
	return Envelope{StatusCode: http.StatusOK, Body: string(data)}, nil
}

// jsonString serializes a result for functions that return a JSON document as a string.
func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding response: %w", err)
	}
	return string(data), nil
}
