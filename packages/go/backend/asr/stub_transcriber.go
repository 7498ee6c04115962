package asr

import (
	"context"
	"sync"
	"time"

	"agrivoice/packages/go/backend/media"
)

// StubTranscriberConfig configures the stub transcriber behavior.
type StubTranscriberConfig struct {
	// ProcessingDelay simulates ASR processing time per clip.
	ProcessingDelay time.Duration
	// Transcripts are returned in order, one per call, cycling when
	// exhausted. An empty entry simulates silence.
	Transcripts []string
	// Confidence is reported with every transcript.
	Confidence float64
	// Err, when set, is returned by every call.
	Err error
}

// DefaultStubTranscriberConfig returns sensible defaults for testing.
func DefaultStubTranscriberConfig() *StubTranscriberConfig {
	return &StubTranscriberConfig{
		ProcessingDelay: 50 * time.Millisecond,
		Transcripts: []string{
			"What fertilizer should I use for wheat?",
			"How often should I water my paddy field?",
			"There are white insects on my cotton leaves.",
		},
		Confidence: 0.95,
	}
}

// StubTranscriber is a test implementation that returns deterministic transcripts.
type StubTranscriber struct {
	config *StubTranscriberConfig

	mu    sync.Mutex
	calls int
}

// NewStubTranscriber creates a new stub transcriber with the given config.
func NewStubTranscriber(config *StubTranscriberConfig) *StubTranscriber {
	if config == nil {
		config = DefaultStubTranscriberConfig()
	}
	return &StubTranscriber{config: config}
}

// Transcribe returns the next configured transcript.
func (s *StubTranscriber) Transcribe(ctx context.Context, clip media.AudioClip, language string) (Transcript, error) {
	// Simulate processing delay
	if s.config.ProcessingDelay > 0 {
		select {
		case <-time.After(s.config.ProcessingDelay):
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		}
	}

	if s.config.Err != nil {
		return Transcript{}, s.config.Err
	}
	if clip.Empty() {
		return Transcript{}, ErrNoSpeech
	}

	s.mu.Lock()
	index := s.calls
	s.calls++
	s.mu.Unlock()

	text := ""
	if len(s.config.Transcripts) > 0 {
		text = s.config.Transcripts[index%len(s.config.Transcripts)]
	}

	return Transcript{
		Text:       text,
		Confidence: s.config.Confidence,
		Language:   language,
	}, nil
}

// Calls returns how many clips were transcribed.
func (s *StubTranscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Health returns the health status of the stub transcriber.
func (s *StubTranscriber) Health() HealthStatus {
	return HealthStatus{
		Healthy: true,
		Message: "stub transcriber ready",
	}
}
