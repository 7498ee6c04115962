package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"agrivoice/packages/go/backend/di"
	"agrivoice/packages/go/backend/i18n"
	"agrivoice/packages/go/backend/pipeline"
)

func newRouter(c *di.Container, runner *pipelineRunner, logger *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler(c, logger))

	mux.HandleFunc("GET /v1/languages", listLanguagesHandler(c.Localizer, logger))
	mux.HandleFunc("GET /v1/language", getLanguageHandler(c.Localizer, logger))
	mux.HandleFunc("PUT /v1/language", setLanguageHandler(c.Localizer, logger))
	mux.HandleFunc("GET /v1/translations/{key}", translateHandler(c.Localizer, logger))

	mux.HandleFunc("GET /v1/voice/session", getVoiceSessionHandler(c.Orchestrator, logger))
	mux.HandleFunc("POST /v1/voice/listen", startListeningHandler(c.Orchestrator, logger))
	mux.HandleFunc("POST /v1/voice/stop", stopListeningHandler(c.Orchestrator, runner, logger))
	mux.HandleFunc("POST /v1/voice/cancel", cancelHandler(c.Orchestrator, logger))
	mux.HandleFunc("POST /v1/voice/ask", askHandler(c.Orchestrator, logger))
	mux.HandleFunc("POST /v1/voice/speak", speakHandler(c.Orchestrator, runner, logger))
	mux.HandleFunc("POST /v1/voice/reset", resetHandler(c.Orchestrator, logger))
	mux.HandleFunc("GET /v1/voice/sessions/{id}/status", sessionStatusHandler(c.Subscriber, logger))
	return mux
}

type componentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

func healthHandler(c *di.Container, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentHealth{
			"microphone":  componentHealth(c.Microphone.Health()),
			"transcriber": componentHealth(c.Transcriber.Health()),
			"generator":   componentHealth(c.Generator.Health()),
			"synthesizer": componentHealth(c.Synthesizer.Health()),
		}

		// Generation failures are absorbed by the offline fallback, so only
		// the devices decide overall health.
		status, code := "ok", http.StatusOK
		if !components["microphone"].Healthy || !components["synthesizer"].Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		writeJSON(w, logger, code, map[string]any{
			"status":     status,
			"language":   c.Localizer.CurrentLanguage(),
			"components": components,
		})
	}
}

// pipelineRunner runs voice pipelines that outlive the request that started
// them, and lets shutdown wait for them.
type pipelineRunner struct {
	ctx    context.Context
	wg     sync.WaitGroup
	logger *zap.SugaredLogger
}

func newPipelineRunner(ctx context.Context, logger *zap.SugaredLogger) *pipelineRunner {
	return &pipelineRunner{ctx: context.WithoutCancel(ctx), logger: logger}
}

func (p *pipelineRunner) Go(name string, fn func(ctx context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := fn(p.ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warnw("background voice task failed", "task", name, "error", err)
		}
	}()
}

func (p *pipelineRunner) Wait() {
	p.wg.Wait()
}

func statusForError(err error) int {
	var (
		permErr        *pipeline.PermissionError
		transErr       *pipeline.TranscriptionError
		synthErr       *pipeline.SynthesisError
		unsupportedErr *i18n.UnsupportedLanguageError
	)
	switch {
	case errors.Is(err, pipeline.ErrSessionActive), errors.Is(err, pipeline.ErrNotListening):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrEmptyQuestion), errors.Is(err, pipeline.ErrEmptyText):
		return http.StatusBadRequest
	case errors.As(err, &permErr):
		return http.StatusForbidden
	case errors.As(err, &unsupportedErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transErr), errors.As(err, &synthErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, status int, err error) {
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any, logger *zap.SugaredLogger) error {
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Errorw("failed to close request body", "error", err)
		}
	}()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
