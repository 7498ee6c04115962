package generation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no generation model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// ContentGenerator is the subset of the genai Models service used here.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator answers prompts with a Gemini text model.
type GeminiGenerator struct {
	models      ContentGenerator
	model       string
	temperature *float32
	maxTokens   int32
}

// GeminiOption tunes a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GeminiOption {
	return func(g *GeminiGenerator) { g.temperature = &t }
}

// WithMaxOutputTokens caps the answer length.
func WithMaxOutputTokens(n int32) GeminiOption {
	return func(g *GeminiGenerator) { g.maxTokens = n }
}

// NewGeminiGenerator creates a generator backed by the given models service.
func NewGeminiGenerator(models ContentGenerator, model string, opts ...GeminiOption) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	g := &GeminiGenerator{models: models, model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeminiClient creates a genai client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Generate sends the prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	var config *genai.GenerateContentConfig
	if g.temperature != nil || g.maxTokens > 0 {
		config = &genai.GenerateContentConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Result{}, ErrEmptyResponse
	}
	return Result{Text: text, Model: g.model}, nil
}

// Health reports whether a models service is configured.
func (g *GeminiGenerator) Health() HealthStatus {
	if g.models == nil {
		return HealthStatus{Healthy: false, Message: "gemini client not configured"}
	}
	return HealthStatus{Healthy: true, Message: "gemini generator " + g.model}
}
