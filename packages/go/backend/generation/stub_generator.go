package generation

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StubGeneratorConfig configures the stub generator behavior.
type StubGeneratorConfig struct {
	// ProcessingDelay simulates generation latency.
	ProcessingDelay time.Duration
	// Answers maps a lowercase keyword to a canned answer. The first
	// keyword found in the prompt wins, in Keywords order.
	Answers map[string]string
	// Keywords fixes the lookup order for Answers.
	Keywords []string
	// DefaultAnswer is used when no keyword matches.
	DefaultAnswer string
	// FailFirst makes the first N calls fail with Err.
	FailFirst int
	// Err is the error returned by failing calls.
	Err error
}

// DefaultStubGeneratorConfig returns sensible defaults for testing.
func DefaultStubGeneratorConfig() *StubGeneratorConfig {
	return &StubGeneratorConfig{
		ProcessingDelay: 50 * time.Millisecond,
		Keywords:        []string{"wheat", "paddy", "cotton"},
		Answers: map[string]string{
			"wheat":  "For wheat, apply 120 kg nitrogen, 60 kg phosphorus and 40 kg potash per hectare, splitting the nitrogen across sowing and first irrigation.",
			"paddy":  "Keep 2 to 5 cm of standing water in paddy during tillering and drain the field 10 days before harvest.",
			"cotton": "White insects on cotton are usually whitefly. Use yellow sticky traps and spray neem oil at 5 ml per litre.",
		},
		DefaultAnswer: "Please share the crop name and the problem you see so I can advise you better.",
	}
}

// StubGenerator is a test implementation that returns deterministic answers.
type StubGenerator struct {
	config *StubGeneratorConfig

	mu      sync.Mutex
	calls   int
	prompts []string
}

// NewStubGenerator creates a new stub generator with the given config.
func NewStubGenerator(config *StubGeneratorConfig) *StubGenerator {
	if config == nil {
		config = DefaultStubGeneratorConfig()
	}
	return &StubGenerator{config: config}
}

// Generate returns a canned answer for the prompt.
func (s *StubGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	// Simulate processing delay
	if s.config.ProcessingDelay > 0 {
		select {
		case <-time.After(s.config.ProcessingDelay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	s.mu.Lock()
	s.calls++
	call := s.calls
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.config.Err != nil && (s.config.FailFirst <= 0 || call <= s.config.FailFirst) {
		return Result{}, s.config.Err
	}

	return Result{Text: s.lookupAnswer(prompt), Model: "stub"}, nil
}

// lookupAnswer finds a canned answer for the prompt or returns the default.
func (s *StubGenerator) lookupAnswer(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, keyword := range s.config.Keywords {
		if strings.Contains(lower, keyword) {
			if answer, ok := s.config.Answers[keyword]; ok {
				return answer
			}
		}
	}
	return s.config.DefaultAnswer
}

// Calls returns how many times Generate was invoked.
func (s *StubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Prompts returns every prompt received so far.
func (s *StubGenerator) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Health returns the health status of the stub generator.
func (s *StubGenerator) Health() HealthStatus {
	return HealthStatus{
		Healthy: true,
		Message: "stub generator ready",
	}
}
