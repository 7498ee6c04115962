package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agrivoice/packages/go/backend/config"
	"agrivoice/packages/go/backend/di"
	"agrivoice/packages/go/backend/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agrivoice-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("AGRIVOICE_CONFIG"))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.New(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Errorw("failed to close services", "error", err)
		}
	}()

	if cfg.I18n.Watch && cfg.I18n.BundlesDir != "" {
		if err := container.Localizer.Watch(ctx, cfg.I18n.BundlesDir); err != nil {
			logger.Warnw("bundle hot reload disabled", "dir", cfg.I18n.BundlesDir, "error", err)
		}
	}

	runner := newPipelineRunner(ctx, logger)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           loggingMiddleware(newRouter(container, runner, logger), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infow("server listening", "addr", cfg.Server.Addr, "language", container.Localizer.CurrentLanguage())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Infow("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := container.Orchestrator.StopAll(shutdownCtx); err != nil {
			logger.Warnw("failed to stop voice session", "error", err)
		}
		runner.Wait()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("graceful shutdown failed", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				logger.Errorw("forced close failed", "error", closeErr)
			}
		}
		return nil
	})

	return group.Wait()
}

func loggingMiddleware(next http.Handler, logger *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		logger.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start),
		)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}
