package tts

import (
	"context"
	"errors"
)

// ErrStopped is returned by Speak when playback was interrupted by Stop.
var ErrStopped = errors.New("speech stopped")

// Utterance records one completed or interrupted Speak call.
type Utterance struct {
	// Text is what was spoken.
	Text string `json:"text"`
	// SynthesisCode is the voice locale used, for example hi-IN.
	SynthesisCode string `json:"synthesisCode"`
	// Interrupted is true when playback did not run to completion.
	Interrupted bool `json:"interrupted"`
}

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Synthesizer plays text through the process-wide speech output.
type Synthesizer interface {
	// Speak plays text in the given voice locale and returns once playback
	// has finished, been stopped (ErrStopped) or the context is done.
	Speak(ctx context.Context, text string, synthesisCode string) error

	// Stop interrupts any playback in progress. It is a no-op when silent.
	Stop(ctx context.Context) error

	// IsSpeaking reports whether playback is in progress.
	IsSpeaking(ctx context.Context) (bool, error)

	// Health returns the current health status of the synthesizer.
	Health() HealthStatus
}
