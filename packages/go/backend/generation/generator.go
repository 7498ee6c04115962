package generation

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty generation response")

// Result is one completed text generation.
type Result struct {
	// Text is the generated answer.
	Text string `json:"text"`
	// Model identifies the backend model that produced the text.
	Model string `json:"model,omitempty"`
}

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Generator produces advisory text for a prompt.
type Generator interface {
	// Generate answers a single prompt.
	Generate(ctx context.Context, prompt string) (Result, error)

	// Health returns the current health status of the generator.
	Health() HealthStatus
}
