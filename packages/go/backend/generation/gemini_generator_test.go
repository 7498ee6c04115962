package generation

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	reply  string
	err    error
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(f.reply, genai.RoleModel)},
		},
	}, nil
}

func TestGeminiGenerator_Generate(t *testing.T) {
	t.Parallel()

	models := &fakeModels{reply: "Use DAP at sowing.\n"}
	generator := NewGeminiGenerator(models, "gemini-test", WithTemperature(0.4), WithMaxOutputTokens(256))

	result, err := generator.Generate(context.Background(), "preamble: which fertilizer?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "Use DAP at sowing." {
		t.Errorf("unexpected text %q", result.Text)
	}
	if result.Model != "gemini-test" || models.model != "gemini-test" {
		t.Errorf("expected model gemini-test, got %q / %q", result.Model, models.model)
	}
	if models.prompt != "preamble: which fertilizer?" {
		t.Errorf("prompt not forwarded, got %q", models.prompt)
	}
	if models.config == nil || models.config.MaxOutputTokens != 256 || *models.config.Temperature != 0.4 {
		t.Errorf("unexpected config %#v", models.config)
	}
}

func TestGeminiGenerator_NoConfigByDefault(t *testing.T) {
	t.Parallel()

	models := &fakeModels{reply: "ok"}
	if _, err := NewGeminiGenerator(models, "").Generate(context.Background(), "q"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if models.config != nil {
		t.Errorf("expected nil config, got %#v", models.config)
	}
	if models.model != DefaultGeminiModel {
		t.Errorf("expected default model, got %q", models.model)
	}
}

func TestGeminiGenerator_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("503")
	if _, err := NewGeminiGenerator(&fakeModels{err: boom}, "").Generate(context.Background(), "q"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if _, err := NewGeminiGenerator(&fakeModels{reply: " "}, "").Generate(context.Background(), "q"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGeminiClient(context.Background(), ""); err == nil {
		t.Fatal("expected error without API key")
	}
}
