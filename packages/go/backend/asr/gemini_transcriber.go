package asr

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"agrivoice/packages/go/backend/media"
)

// DefaultGeminiModel is used when no transcription model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// ContentGenerator is the subset of the genai Models service used here.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiTranscriber sends the captured clip as inline audio to a Gemini model
// and asks for a verbatim transcript.
type GeminiTranscriber struct {
	models ContentGenerator
	model  string
}

// NewGeminiTranscriber creates a transcriber backed by the given models service.
func NewGeminiTranscriber(models ContentGenerator, model string) *GeminiTranscriber {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiTranscriber{models: models, model: model}
}

// Transcribe uploads the clip inline and returns the model's transcript.
func (g *GeminiTranscriber) Transcribe(ctx context.Context, clip media.AudioClip, language string) (Transcript, error) {
	if clip.Empty() {
		return Transcript{}, ErrNoSpeech
	}

	mimeType := clip.MIMEType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	instruction := fmt.Sprintf(
		"Transcribe this farmer's spoken question verbatim. The speech is in the language with code %q. "+
			"Reply with the transcript only. If there is no intelligible speech, reply with an empty message.",
		language,
	)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(clip.Data, mimeType),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Transcript{}, fmt.Errorf("gemini transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Transcript{}, ErrNoSpeech
	}

	return Transcript{Text: text, Language: language}, nil
}

// Health reports whether a models service is configured.
func (g *GeminiTranscriber) Health() HealthStatus {
	if g.models == nil {
		return HealthStatus{Healthy: false, Message: "gemini client not configured"}
	}
	return HealthStatus{Healthy: true, Message: "gemini transcriber " + g.model}
}
