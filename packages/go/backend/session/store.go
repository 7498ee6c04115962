package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Listener receives a snapshot after every store action.
type Listener func(VoiceSession)

// Store owns the single VoiceSession. All mutation goes through its actions.
type Store struct {
	mu        sync.Mutex
	current   VoiceSession
	listeners []*listenerEntry
	logger    *zap.SugaredLogger
	now       func() time.Time
}

type listenerEntry struct {
	fn Listener
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an idle store.
func NewStore(logger *zap.SugaredLogger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Store{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.current = VoiceSession{State: StateIdle, UpdatedAt: s.now()}
	return s
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() VoiceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	entry := &listenerEntry{fn: fn}
	s.mu.Lock()
	s.listeners = append(s.listeners, entry)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l == entry {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Begin starts a fresh listening session, dropping the previous exchange.
func (s *Store) Begin(id, language string) {
	s.BeginAt(id, language, StateListening)
}

// BeginAt starts a fresh session that enters the pipeline at state, as typed
// questions do at StateGenerating.
func (s *Store) BeginAt(id, language string, state State) {
	s.update(func(v *VoiceSession) {
		*v = VoiceSession{
			ID:         id,
			State:      state,
			Listening:  state == StateListening,
			Processing: state == StateTranscribing || state == StateGenerating,
			Speaking:   state == StateSpeaking,
			Language:   language,
		}
	})
}

// SetState records the stage without touching the flags.
func (s *Store) SetState(state State) {
	s.update(func(v *VoiceSession) {
		v.State = state
	})
}

// BeginProcessing marks the session as transcribing or generating.
func (s *Store) BeginProcessing(state State) {
	s.update(func(v *VoiceSession) {
		v.State = state
		v.Listening = false
		v.Processing = true
		v.Speaking = false
	})
}

func (s *Store) SetTranscript(text string) {
	s.update(func(v *VoiceSession) {
		v.Transcript = text
	})
}

func (s *Store) SetResponse(text string, fallback bool) {
	s.update(func(v *VoiceSession) {
		v.Response = text
		v.Fallback = fallback
	})
}

// BeginSpeaking marks synthesis as in progress.
func (s *Store) BeginSpeaking() {
	s.update(func(v *VoiceSession) {
		v.State = StateSpeaking
		v.Listening = false
		v.Processing = false
		v.Speaking = true
	})
}

// Fail moves the session to the error state. An empty message records the
// error state without a user-visible message.
func (s *Store) Fail(message string) {
	s.update(func(v *VoiceSession) {
		v.State = StateError
		v.Listening = false
		v.Processing = false
		v.Speaking = false
		v.Error = message
	})
}

// Settle returns the session to idle, keeping the last exchange and any error.
func (s *Store) Settle() {
	s.update(func(v *VoiceSession) {
		v.State = StateIdle
		v.Listening = false
		v.Processing = false
		v.Speaking = false
	})
}

// Cancel returns the session to idle and clears any error. Transcript and
// response are kept.
func (s *Store) Cancel() {
	s.update(func(v *VoiceSession) {
		v.State = StateIdle
		v.Listening = false
		v.Processing = false
		v.Speaking = false
		v.Error = ""
	})
}

// Reset discards the session entirely.
func (s *Store) Reset() {
	s.update(func(v *VoiceSession) {
		*v = VoiceSession{State: StateIdle, Language: v.Language}
	})
}

func (s *Store) update(mutate func(*VoiceSession)) {
	s.mu.Lock()
	mutate(&s.current)
	s.current.UpdatedAt = s.now()
	snapshot := s.current
	listeners := make([]*listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		s.notify(l.fn, snapshot)
	}
}

func (s *Store) notify(fn Listener, snapshot VoiceSession) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("session listener panicked", "panic", r, "state", snapshot.State)
		}
	}()
	fn(snapshot)
}
