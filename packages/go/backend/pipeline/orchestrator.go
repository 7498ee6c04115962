package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrivoice/packages/go/backend/asr"
	"agrivoice/packages/go/backend/generation"
	"agrivoice/packages/go/backend/i18n"
	"agrivoice/packages/go/backend/media"
	"agrivoice/packages/go/backend/session"
	"agrivoice/packages/go/backend/status"
	"agrivoice/packages/go/backend/tts"
)

// Store-visible error messages.
const (
	msgPermission    = "voice.errors.permission"
	msgMicrophone    = "voice.errors.microphone"
	msgTranscription = "voice.errors.transcription"
	msgSynthesis     = "voice.errors.synthesis"
)

type phase int

const (
	phaseIdle phase = iota
	phaseOpening
	phaseListening
	phaseRunning
)

// Dependencies are the collaborators an Orchestrator drives.
type Dependencies struct {
	Microphone  media.Microphone
	Transcriber asr.Transcriber
	Generator   generation.Generator
	Synthesizer tts.Synthesizer
	Localizer   *i18n.Localizer
	Store       *session.Store
	// Publisher is optional.
	Publisher status.Publisher
	Logger    *zap.SugaredLogger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithRetryPolicy replaces the generation retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.retry = policy
	}
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// Orchestrator runs one voice interaction at a time: listen, transcribe,
// generate and speak. It is the sole owner of the microphone and synthesizer
// and reports progress only through the session store and status events.
//
// Store listeners must not call back into the Orchestrator synchronously.
type Orchestrator struct {
	mic         media.Microphone
	transcriber asr.Transcriber
	generator   generation.Generator
	synth       tts.Synthesizer
	localizer   *i18n.Localizer
	store       *session.Store
	publisher   status.Publisher
	logger      *zap.SugaredLogger
	retry       RetryPolicy
	newID       func() string

	mu        sync.Mutex
	phase     phase
	run       uint64
	sessionID string
	language  i18n.LanguageCode
	recording media.Recording
	cancelRun context.CancelFunc
	readAloud context.CancelFunc
}

// NewOrchestrator validates deps and builds an idle orchestrator.
func NewOrchestrator(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Microphone == nil:
		return nil, errors.New("microphone required")
	case deps.Transcriber == nil:
		return nil, errors.New("transcriber required")
	case deps.Generator == nil:
		return nil, errors.New("generator required")
	case deps.Synthesizer == nil:
		return nil, errors.New("synthesizer required")
	case deps.Localizer == nil:
		return nil, errors.New("localizer required")
	case deps.Store == nil:
		return nil, errors.New("session store required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	o := &Orchestrator{
		mic:         deps.Microphone,
		transcriber: deps.Transcriber,
		generator:   deps.Generator,
		synth:       deps.Synthesizer,
		localizer:   deps.Localizer,
		store:       deps.Store,
		publisher:   deps.Publisher,
		logger:      logger,
		retry:       DefaultRetryPolicy(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Session returns the current voice session.
func (o *Orchestrator) Session() session.VoiceSession {
	return o.store.Snapshot()
}

// StartListening acquires the microphone and begins a new session. It is a
// no-op when already listening and fails with ErrSessionActive while a
// previous run is still transcribing, generating or speaking.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	o.mu.Lock()
	switch o.phase {
	case phaseOpening, phaseListening:
		id := o.sessionID
		o.mu.Unlock()
		o.logger.Infow("already listening, ignoring start request", "session_id", id)
		return nil
	case phaseRunning:
		o.mu.Unlock()
		return ErrSessionActive
	}
	if o.readAloud != nil {
		o.mu.Unlock()
		return ErrSessionActive
	}

	o.run++
	run := o.run
	o.phase = phaseOpening
	o.sessionID = o.newID()
	o.language = o.localizer.CurrentLanguage()
	sessionID, language := o.sessionID, o.language
	o.store.Begin(sessionID, string(language))
	o.mu.Unlock()

	o.publish(ctx, sessionID, status.StageListening, status.StateRunning, "acquiring microphone")

	recording, err := o.mic.Open(ctx)

	o.mu.Lock()
	if o.run != run {
		o.mu.Unlock()
		if recording != nil {
			_ = recording.Close()
		}
		return context.Canceled
	}
	if err != nil {
		var message string
		if errors.Is(err, media.ErrPermissionDenied) {
			err = &PermissionError{Err: err}
			message = msgPermission
		} else {
			err = fmt.Errorf("open microphone: %w", err)
			message = msgMicrophone
		}
		// Settle before leaving the opening phase so a new session cannot be
		// overwritten by this failure.
		o.store.Fail(o.localizer.TranslateIn(language, message, nil))
		o.store.Settle()
		o.phase = phaseIdle
		o.mu.Unlock()

		o.logger.Warnw("microphone unavailable", "session_id", sessionID, "error", err)
		o.publish(ctx, sessionID, status.StageListening, status.StateFailed, err.Error())
		return err
	}
	o.recording = recording
	o.phase = phaseListening
	o.mu.Unlock()

	o.logger.Infow("listening", "session_id", sessionID, "language", language)
	return nil
}

// StopListening ends the recording and runs the rest of the pipeline,
// blocking until it settles.
func (o *Orchestrator) StopListening(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != phaseListening {
		o.mu.Unlock()
		return ErrNotListening
	}
	recording := o.recording
	o.recording = nil
	runCtx, run := o.beginRunLocked(ctx)
	sessionID, language := o.sessionID, o.language
	o.mu.Unlock()
	defer o.endRun(run)

	o.commit(run, func() { o.store.BeginProcessing(session.StateTranscribing) })

	clip, err := recording.Stop()
	if o.cancelled(run) {
		return context.Canceled
	}
	if err != nil {
		o.publish(runCtx, sessionID, status.StageListening, status.StateFailed, err.Error())
		return o.failTranscription(runCtx, run, sessionID, language, fmt.Errorf("stop recording: %w", err))
	}
	o.publish(runCtx, sessionID, status.StageListening, status.StateCompleted, clip.Duration.String())

	o.publish(runCtx, sessionID, status.StageTranscription, status.StateRunning, "")
	transcript, err := o.transcriber.Transcribe(runCtx, clip, string(language))
	if o.cancelled(run) {
		return context.Canceled
	}
	if runCtx.Err() != nil {
		return o.abandon(runCtx, run, sessionID, status.StageTranscription)
	}
	text := strings.TrimSpace(transcript.Text)
	if err == nil && text == "" {
		err = asr.ErrNoSpeech
	}
	if err != nil {
		return o.failTranscription(runCtx, run, sessionID, language, err)
	}

	o.commit(run, func() { o.store.SetTranscript(text) })
	o.publish(runCtx, sessionID, status.StageTranscription, status.StateCompleted, fmt.Sprintf("confidence %.2f", transcript.Confidence))
	o.logger.Infow("transcribed", "session_id", sessionID, "chars", len(text), "confidence", transcript.Confidence)

	return o.respond(runCtx, run, sessionID, language, text)
}

// Ask answers a typed question, entering the pipeline at generation.
func (o *Orchestrator) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	o.mu.Lock()
	if o.phase != phaseIdle || o.readAloud != nil {
		o.mu.Unlock()
		return ErrSessionActive
	}
	o.run++
	o.sessionID = o.newID()
	o.language = o.localizer.CurrentLanguage()
	runCtx, run := o.beginRunLocked(ctx)
	sessionID, language := o.sessionID, o.language
	o.mu.Unlock()
	defer o.endRun(run)

	o.commit(run, func() {
		o.store.BeginAt(sessionID, string(language), session.StateGenerating)
		o.store.SetTranscript(question)
	})
	return o.respond(runCtx, run, sessionID, language, question)
}

// Speak reads text aloud in the current language outside of any session.
func (o *Orchestrator) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	o.mu.Lock()
	if o.phase != phaseIdle || o.readAloud != nil {
		o.mu.Unlock()
		return ErrSessionActive
	}
	speakCtx, cancel := context.WithCancel(ctx)
	o.readAloud = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.readAloud = nil
		o.mu.Unlock()
		cancel()
	}()

	descriptor := o.localizer.CurrentDescriptor()
	err := o.synth.Speak(speakCtx, text, descriptor.SpeechSynthesisCode)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tts.ErrStopped), speakCtx.Err() != nil:
		return context.Canceled
	default:
		o.logger.Warnw("read aloud failed", "language", descriptor.Code, "error", err)
		return &SynthesisError{Err: err}
	}
}

// Cancel stops recording and speech, keeps the last exchange and returns the
// session to idle without an error. It is safe to call at any time.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	return o.stop(ctx, false)
}

// StopAll is Cancel that also interrupts read-aloud speech.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	return o.stop(ctx, true)
}

// Reset clears the session. It fails with ErrSessionActive unless idle.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != phaseIdle {
		return ErrSessionActive
	}
	o.store.Reset()
	return nil
}

func (o *Orchestrator) stop(ctx context.Context, includeReadAloud bool) error {
	o.mu.Lock()
	active := o.phase != phaseIdle
	recording := o.recording
	cancelRun := o.cancelRun
	var readAloud context.CancelFunc
	if includeReadAloud {
		readAloud = o.readAloud
	}
	sessionID := o.sessionID
	var stage string
	if active {
		o.run++
		o.phase = phaseIdle
		o.recording = nil
		o.cancelRun = nil
		stage = stageFor(o.store.Snapshot().State)
		o.store.Cancel()
	}
	o.mu.Unlock()

	if !active && readAloud == nil {
		return nil
	}

	if recording != nil {
		if err := recording.Close(); err != nil {
			o.logger.Warnw("release microphone failed", "session_id", sessionID, "error", err)
		}
	}
	if cancelRun != nil {
		cancelRun()
	}
	if readAloud != nil {
		readAloud()
	}

	var stopErr error
	if active || readAloud != nil {
		if err := o.synth.Stop(ctx); err != nil {
			o.logger.Warnw("stop speech failed", "session_id", sessionID, "error", err)
			stopErr = &SynthesisError{Err: err}
		}
	}

	if active {
		o.publish(ctx, sessionID, stage, status.StateCancelled, "")
		o.logger.Infow("voice session cancelled", "session_id", sessionID, "stage", stage)
	}
	return stopErr
}

func (o *Orchestrator) respond(ctx context.Context, run uint64, sessionID string, language i18n.LanguageCode, question string) error {
	o.commit(run, func() { o.store.BeginProcessing(session.StateGenerating) })

	descriptor, _ := o.localizer.Descriptor(language)
	prompt := descriptor.PromptPreamble + question

	o.publish(ctx, sessionID, status.StageGeneration, status.StateRunning, "")
	var result generation.Result
	attempts, err := o.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var genErr error
		result, genErr = o.generator.Generate(ctx, prompt)
		if genErr == nil && strings.TrimSpace(result.Text) == "" {
			genErr = generation.ErrEmptyResponse
		}
		if genErr != nil {
			o.logger.Warnw("generation attempt failed",
				"session_id", sessionID,
				"attempt", attempt,
				"error", genErr,
			)
		}
		return genErr
	})
	if o.cancelled(run) {
		return context.Canceled
	}
	if ctx.Err() != nil {
		return o.abandon(ctx, run, sessionID, status.StageGeneration)
	}

	if err != nil {
		genErr := &GenerationError{Attempts: attempts, Err: err}
		o.logger.Errorw("generation unavailable, answering with offline advice",
			"session_id", sessionID,
			"error", genErr,
		)
		fallback := FallbackResponse(o.localizer, language, question)
		o.commit(run, func() {
			o.store.SetResponse(fallback, true)
			o.store.Fail("")
			o.store.Settle()
		})
		o.publish(ctx, sessionID, status.StageGeneration, status.StateFailed, genErr.Error())
		return nil
	}

	text := strings.TrimSpace(result.Text)
	o.commit(run, func() {
		o.store.SetResponse(text, false)
		o.store.BeginSpeaking()
	})
	o.publish(ctx, sessionID, status.StageGeneration, status.StateCompleted, fmt.Sprintf("attempts %d", attempts))

	o.publish(ctx, sessionID, status.StageSynthesis, status.StateRunning, descriptor.SpeechSynthesisCode)
	err = o.synth.Speak(ctx, text, descriptor.SpeechSynthesisCode)
	if o.cancelled(run) {
		return context.Canceled
	}
	if ctx.Err() != nil {
		return o.abandon(ctx, run, sessionID, status.StageSynthesis)
	}
	if err != nil {
		synthErr := &SynthesisError{Err: err}
		o.logger.Warnw("speech synthesis failed", "session_id", sessionID, "error", err)
		o.commit(run, func() {
			o.store.Fail(o.localizer.TranslateIn(language, msgSynthesis, nil))
			o.store.Settle()
		})
		o.publish(ctx, sessionID, status.StageSynthesis, status.StateFailed, err.Error())
		return synthErr
	}

	o.commit(run, func() { o.store.Settle() })
	o.publish(ctx, sessionID, status.StageSynthesis, status.StateCompleted, "")
	o.logger.Infow("voice session answered", "session_id", sessionID, "attempts", attempts)
	return nil
}

func (o *Orchestrator) failTranscription(ctx context.Context, run uint64, sessionID string, language i18n.LanguageCode, cause error) error {
	err := &TranscriptionError{Err: cause}
	o.logger.Warnw("transcription failed", "session_id", sessionID, "error", cause)
	o.commit(run, func() {
		o.store.Fail(o.localizer.TranslateIn(language, msgTranscription, nil))
		o.store.Settle()
	})
	o.publish(ctx, sessionID, status.StageTranscription, status.StateFailed, cause.Error())
	return err
}

// abandon settles a run whose caller context ended without Cancel being
// called. The exchange so far is kept, like Cancel.
func (o *Orchestrator) abandon(ctx context.Context, run uint64, sessionID, stage string) error {
	o.commit(run, func() { o.store.Cancel() })
	o.publish(ctx, sessionID, stage, status.StateCancelled, ctx.Err().Error())
	o.logger.Infow("voice session abandoned", "session_id", sessionID, "stage", stage, "error", ctx.Err())
	return ctx.Err()
}

// beginRunLocked marks a run as in flight. o.mu must be held.
func (o *Orchestrator) beginRunLocked(ctx context.Context) (context.Context, uint64) {
	runCtx, cancel := context.WithCancel(ctx)
	o.phase = phaseRunning
	o.cancelRun = cancel
	return runCtx, o.run
}

func (o *Orchestrator) endRun(run uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != run {
		return
	}
	if o.cancelRun != nil {
		o.cancelRun()
		o.cancelRun = nil
	}
	o.phase = phaseIdle
}

func (o *Orchestrator) cancelled(run uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run != run
}

// commit applies a store mutation only if run has not been cancelled.
func (o *Orchestrator) commit(run uint64, mutate func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != run {
		return
	}
	mutate()
}

func (o *Orchestrator) publish(ctx context.Context, sessionID, stage, state, detail string) {
	if o.publisher == nil || sessionID == "" {
		return
	}
	event := status.SessionStatusEvent{
		SessionID: sessionID,
		Stage:     stage,
		State:     state,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	// Status delivery must not be cut short by a cancelled run.
	if err := o.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		o.logger.Warnw("publish status failed", "session_id", sessionID, "stage", stage, "error", err)
	}
}

func stageFor(state session.State) string {
	switch state {
	case session.StateTranscribing:
		return status.StageTranscription
	case session.StateGenerating:
		return status.StageGeneration
	case session.StateSpeaking:
		return status.StageSynthesis
	default:
		return status.StageListening
	}
}
