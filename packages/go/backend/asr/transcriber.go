package asr

import (
	"context"
	"errors"

	"agrivoice/packages/go/backend/media"
)

// ErrNoSpeech is returned when the captured audio contains nothing to
// transcribe.
var ErrNoSpeech = errors.New("no speech detected")

// Transcript represents the transcribed text of one captured utterance.
type Transcript struct {
	// Text is the full transcribed text.
	Text string `json:"text"`
	// Confidence is the ASR confidence score (0.0 - 1.0). Zero means the
	// backend did not report one.
	Confidence float64 `json:"confidence"`
	// Language is the language the audio was transcribed in.
	Language string `json:"language"`
}

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Transcriber turns captured audio into text using speech recognition.
type Transcriber interface {
	// Transcribe converts one clip to text in the given language.
	Transcribe(ctx context.Context, clip media.AudioClip, language string) (Transcript, error)

	// Health returns the current health status of the transcriber.
	Health() HealthStatus
}
