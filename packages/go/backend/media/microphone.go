package media

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied is returned by Open when the platform refuses access to
// the recording device.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrRecordingClosed is returned when a recording is stopped after it has
// already released the device.
var ErrRecordingClosed = errors.New("recording already closed")

// AudioClip is a captured utterance handed to the transcription collaborator.
type AudioClip struct {
	// Data holds the encoded audio payload.
	Data []byte `json:"data"`
	// MIMEType describes the payload encoding (for example audio/wav).
	MIMEType string `json:"mimeType"`
	// SampleRate is the audio sample rate in Hz (typically 16000 for ASR).
	SampleRate int `json:"sampleRate"`
	// Duration of the captured audio.
	Duration time.Duration `json:"duration"`
}

// Empty reports whether the clip carries no audio at all.
func (c AudioClip) Empty() bool {
	return len(c.Data) == 0
}

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Recording is an open handle on the recording device. Exactly one of Stop
// or Close releases the device; further calls are harmless.
type Recording interface {
	// Stop finishes capture, releases the device and returns the audio.
	Stop() (AudioClip, error)
	// Close releases the device and discards anything captured.
	Close() error
}

// Microphone acquires the process-wide recording device.
type Microphone interface {
	// Open starts capturing. It fails with ErrPermissionDenied when access
	// to the device is refused.
	Open(ctx context.Context) (Recording, error)

	// Health returns the current health status of the microphone.
	Health() HealthStatus
}
