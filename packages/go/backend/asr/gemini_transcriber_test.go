package asr

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"agrivoice/packages/go/backend/media"
)

type fakeModels struct {
	reply    string
	err      error
	model    string
	contents []*genai.Content
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(f.reply, genai.RoleModel)},
		},
	}, nil
}

func TestGeminiTranscriber_SendsInlineAudio(t *testing.T) {
	t.Parallel()

	models := &fakeModels{reply: "  गेहूं के लिए कौन सी खाद?  "}
	transcriber := NewGeminiTranscriber(models, "")

	clip := media.AudioClip{Data: []byte("RIFF...."), MIMEType: "audio/wav"}
	transcript, err := transcriber.Transcribe(context.Background(), clip, "hi")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if transcript.Text != "गेहूं के लिए कौन सी खाद?" {
		t.Errorf("unexpected transcript %q", transcript.Text)
	}
	if models.model != DefaultGeminiModel {
		t.Errorf("expected default model, got %q", models.model)
	}
	if len(models.contents) != 1 || len(models.contents[0].Parts) != 2 {
		t.Fatalf("expected one content with two parts, got %#v", models.contents)
	}
	audio := models.contents[0].Parts[1]
	if audio.InlineData == nil || audio.InlineData.MIMEType != "audio/wav" {
		t.Errorf("expected inline wav audio part, got %#v", audio)
	}
}

func TestGeminiTranscriber_EmptyReplyIsNoSpeech(t *testing.T) {
	t.Parallel()

	transcriber := NewGeminiTranscriber(&fakeModels{reply: "   "}, "gemini-test")
	_, err := transcriber.Transcribe(context.Background(), testClip, "en")
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestGeminiTranscriber_WrapsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	transcriber := NewGeminiTranscriber(&fakeModels{err: boom}, "gemini-test")
	_, err := transcriber.Transcribe(context.Background(), testClip, "en")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
