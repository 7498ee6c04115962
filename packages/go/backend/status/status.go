package status

import (
	"context"
	"time"
)

// Pipeline stages reported by the voice orchestrator.
const (
	StageListening     = "listening"
	StageTranscription = "transcription"
	StageGeneration    = "generation"
	StageSynthesis     = "synthesis"
)

// Stage states.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// SessionStatusEvent represents a progress update for a voice session.
type SessionStatusEvent struct {
	SessionID string    `json:"sessionId"`
	Stage     string    `json:"stage"`
	State     string    `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers status events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, event SessionStatusEvent) error
}

// Subscriber opens a stream of events for one session.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (StatusStream, error)
}

// StatusStream is an open subscription. Events is closed when the stream ends.
type StatusStream interface {
	Events() <-chan SessionStatusEvent
	Errors() <-chan error
	Close() error
}

func channelName(sessionID string) string {
	return "agrivoice:session:" + sessionID + ":status"
}
