package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive is returned when a pipeline run already owns the
	// microphone or the synthesizer.
	ErrSessionActive = errors.New("voice session already in progress")
	// ErrNotListening is returned by StopListening when nothing is recording.
	ErrNotListening = errors.New("not listening")
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrEmptyText is returned by Speak for blank text.
	ErrEmptyText = errors.New("text is required")
)

// PermissionError reports that microphone access was refused.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone permission: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TranscriptionError reports an empty or failed transcription.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError reports that every generation attempt failed. The
// orchestrator absorbs it by answering with the offline fallback.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError reports a speech playback failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
