package tts

import (
	"context"
	"sync"
	"time"
)

// StubSynthesizerConfig configures the stub synthesizer behavior.
type StubSynthesizerConfig struct {
	// PerWord simulates playback time per spoken word.
	PerWord time.Duration
	// MinDuration is the shortest simulated playback.
	MinDuration time.Duration
	// Err, when set, is returned by every Speak call.
	Err error
}

// DefaultStubSynthesizerConfig returns sensible defaults for testing.
func DefaultStubSynthesizerConfig() *StubSynthesizerConfig {
	return &StubSynthesizerConfig{
		PerWord:     5 * time.Millisecond,
		MinDuration: 10 * time.Millisecond,
	}
}

// StubSynthesizer is a test implementation that simulates playback time and
// records what was spoken.
type StubSynthesizer struct {
	config *StubSynthesizerConfig

	mu         sync.Mutex
	speaking   bool
	stop       chan struct{}
	utterances []Utterance
	stops      int
}

// NewStubSynthesizer creates a new stub synthesizer with the given config.
func NewStubSynthesizer(config *StubSynthesizerConfig) *StubSynthesizer {
	if config == nil {
		config = DefaultStubSynthesizerConfig()
	}
	return &StubSynthesizer{config: config}
}

// Speak simulates playback. A new Speak interrupts the previous one.
func (s *StubSynthesizer) Speak(ctx context.Context, text string, synthesisCode string) error {
	if s.config.Err != nil {
		return s.config.Err
	}

	s.mu.Lock()
	if s.speaking {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.speaking = true
	s.mu.Unlock()

	var err error
	select {
	case <-time.After(s.estimate(text)):
	case <-stop:
		err = ErrStopped
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.mu.Lock()
	if s.stop == stop {
		s.speaking = false
		s.stop = nil
	}
	s.utterances = append(s.utterances, Utterance{Text: text, SynthesisCode: synthesisCode, Interrupted: err != nil})
	s.mu.Unlock()

	return err
}

// Stop interrupts the current utterance, if any.
func (s *StubSynthesizer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if s.speaking {
		close(s.stop)
		s.speaking = false
		s.stop = nil
	}
	return nil
}

// IsSpeaking reports whether a simulated utterance is in progress.
func (s *StubSynthesizer) IsSpeaking(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking, nil
}

// Utterances returns every recorded Speak call in order.
func (s *StubSynthesizer) Utterances() []Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Utterance(nil), s.utterances...)
}

// Stops returns how many times Stop was called.
func (s *StubSynthesizer) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// Health returns the health status of the stub synthesizer.
func (s *StubSynthesizer) Health() HealthStatus {
	return HealthStatus{
		Healthy: true,
		Message: "stub synthesizer ready",
	}
}

// estimate approximates playback time from the word count.
func (s *StubSynthesizer) estimate(text string) time.Duration {
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	duration := time.Duration(words) * s.config.PerWord
	if duration < s.config.MinDuration {
		duration = s.config.MinDuration
	}
	return duration
}
