package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"agrivoice/packages/go/backend/status"
)

const (
	statusWriteWait  = 10 * time.Second
	statusPongWait   = 60 * time.Second
	statusPingPeriod = (statusPongWait * 9) / 10
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// sessionStatusHandler streams a session's status events over a websocket
// until the client goes away.
func sessionStatusHandler(subscriber status.Subscriber, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")

		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()

		stream, err := subscriber.Subscribe(ctx, sessionID)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, err)
			return
		}
		defer func() {
			if err := stream.Close(); err != nil {
				logger.Warnw("failed to close status stream", "sessionId", sessionID, "error", err)
			}
		}()

		conn, err := statusUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// The upgrader already replied to the client.
			logger.Warnw("websocket upgrade failed", "sessionId", sessionID, "error", err)
			return
		}
		defer conn.Close()

		go readStatusClient(conn, cancel)

		ticker := time.NewTicker(statusPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-stream.Events():
				if !ok {
					writeClose(conn, websocket.CloseNormalClosure, "stream closed")
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(statusWriteWait))
				if err := conn.WriteJSON(event); err != nil {
					logger.Warnw("failed to write status event", "sessionId", sessionID, "error", err)
					return
				}
			case err, ok := <-stream.Errors():
				if !ok {
					writeClose(conn, websocket.CloseNormalClosure, "stream closed")
					return
				}
				logger.Warnw("status stream error", "sessionId", sessionID, "error", err)
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(statusWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

// readStatusClient drains client frames so control messages are processed, and
// cancels the stream once the client disconnects.
func readStatusClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(statusPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(statusPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(statusWriteWait))
}
