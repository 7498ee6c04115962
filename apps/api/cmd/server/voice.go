package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"agrivoice/packages/go/backend/pipeline"
	"agrivoice/packages/go/backend/session"
)

// VoiceOrchestrator drives the listen, transcribe, generate and speak
// pipeline.
type VoiceOrchestrator interface {
	Session() session.VoiceSession
	StartListening(ctx context.Context) error
	StopListening(ctx context.Context) error
	Ask(ctx context.Context, question string) error
	Speak(ctx context.Context, text string) error
	StopAll(ctx context.Context) error
	Reset() error
}

type askInput struct {
	Question string `json:"question"`
}

type speakInput struct {
	Text string `json:"text"`
}

func getVoiceSessionHandler(orch VoiceOrchestrator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, orch.Session())
	}
}

func startListeningHandler(orch VoiceOrchestrator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := orch.StartListening(context.WithoutCancel(r.Context())); err != nil {
			writeSessionError(w, orch, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orch.Session())
	}
}

// stopListeningHandler accepts the stop and runs the rest of the pipeline in
// the background; clients follow it over the status stream.
func stopListeningHandler(orch VoiceOrchestrator, runner *pipelineRunner, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := orch.Session()
		if current.State != session.StateListening {
			writeError(w, logger, http.StatusConflict, pipeline.ErrNotListening)
			return
		}

		runner.Go("stop-listening", orch.StopListening)
		writeJSON(w, logger, http.StatusAccepted, current)
	}
}

func cancelHandler(orch VoiceOrchestrator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := orch.StopAll(r.Context()); err != nil {
			logger.Warnw("cancel completed with errors", "error", err)
		}
		writeJSON(w, logger, http.StatusOK, orch.Session())
	}
}

func askHandler(orch VoiceOrchestrator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input askInput
		if err := decodeJSON(r, &input, logger); err != nil {
			writeError(w, logger, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
			return
		}

		// A dropped client must not cut the answer short.
		if err := orch.Ask(context.WithoutCancel(r.Context()), input.Question); err != nil {
			writeSessionError(w, orch, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orch.Session())
	}
}

func speakHandler(orch VoiceOrchestrator, runner *pipelineRunner, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input speakInput
		if err := decodeJSON(r, &input, logger); err != nil {
			writeError(w, logger, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
			return
		}
		if input.Text == "" {
			writeError(w, logger, http.StatusBadRequest, pipeline.ErrEmptyText)
			return
		}
		if orch.Session().State != session.StateIdle {
			writeError(w, logger, http.StatusConflict, pipeline.ErrSessionActive)
			return
		}

		runner.Go("read-aloud", func(ctx context.Context) error {
			return orch.Speak(ctx, input.Text)
		})
		w.WriteHeader(http.StatusAccepted)
	}
}

func resetHandler(orch VoiceOrchestrator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := orch.Reset(); err != nil {
			writeError(w, logger, statusForError(err), err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orch.Session())
	}
}

// writeSessionError reports err alongside the session, whose localized error
// message is what UIs show.
func writeSessionError(w http.ResponseWriter, orch VoiceOrchestrator, logger *zap.SugaredLogger, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logger.Errorw("voice request failed", "error", err)
	}
	writeJSON(w, logger, code, map[string]any{
		"error":   err.Error(),
		"session": orch.Session(),
	})
}
