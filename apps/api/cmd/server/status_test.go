package main

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrivoice/packages/go/backend/status"
)

func dialStatus(t *testing.T, srv *testServer, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/voice/sessions/" + sessionID + "/status"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSessionStatusStreamsPipelineEvents(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	code, body := srv.do(t, http.MethodPost, "/v1/voice/listen", nil)
	require.Equal(t, http.StatusOK, code)
	sessionID := body["id"].(string)

	conn := dialStatus(t, srv, sessionID)

	code, _ = srv.do(t, http.MethodPost, "/v1/voice/stop", nil)
	require.Equal(t, http.StatusAccepted, code)

	var stages []string
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var event status.SessionStatusEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, sessionID, event.SessionID)
		stages = append(stages, event.Stage+":"+event.State)
		if event.Stage == status.StageSynthesis && event.State == status.StateCompleted {
			break
		}
	}

	assert.Equal(t, []string{
		"listening:completed",
		"transcription:running",
		"transcription:completed",
		"generation:running",
		"generation:completed",
		"synthesis:running",
		"synthesis:completed",
	}, stages)
}

func TestSessionStatusReleasesSubscriptionOnDisconnect(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	hub, ok := srv.container.Subscriber.(*status.Hub)
	require.True(t, ok)

	conn := dialStatus(t, srv, "session-42")
	assert.Eventually(t, func() bool { return hub.Subscribers("session-42") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return hub.Subscribers("session-42") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionStatusRequiresUpgrade(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/v1/voice/sessions/abc/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
