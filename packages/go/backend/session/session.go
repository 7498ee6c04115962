package session

import "time"

// State is the orchestrator stage a voice session is currently in.
type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSpeaking     State = "speaking"
	StateError        State = "error"
)

// Busy reports whether a pipeline run owns the session in this state.
func (s State) Busy() bool {
	switch s {
	case StateTranscribing, StateGenerating, StateSpeaking:
		return true
	default:
		return false
	}
}

// VoiceSession is the UI-facing view of one listen to respond cycle.
type VoiceSession struct {
	ID         string    `json:"id,omitempty"`
	State      State     `json:"state"`
	Listening  bool      `json:"listening"`
	Processing bool      `json:"processing"`
	Speaking   bool      `json:"speaking"`
	Transcript string    `json:"transcript"`
	Response   string    `json:"response"`
	Error      string    `json:"error,omitempty"`
	Language   string    `json:"language"`
	Fallback   bool      `json:"fallback"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
