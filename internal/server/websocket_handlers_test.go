package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"hymnbook/internal/models"
	"hymnbook/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := s.App()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		_ = s.hub.Shutdown(context.Background())
		_ = app.Shutdown()
	})
	return ln.Addr().String()
}

func dialFeed(t *testing.T, addr, path, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s%s?token=%s", addr, path, token), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) (notifications.Event, notifications.SubmissionPayload) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.Event
	require.NoError(t, json.Unmarshal(raw, &ev), string(raw))
	var payload notifications.SubmissionPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	return ev, payload
}

func TestWebsocketFeed(t *testing.T) {
	s := newTestServer(t, true)
	addr := listen(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.hub.StartWiring(ctx, s.notifier))

	admin := registerAdmin(t, s, "watcher")
	user := register(t, s.App(), "singer")

	adminConn := dialFeed(t, addr, "/api/ws/admin", admin.Token)
	userConn := dialFeed(t, addr, "/api/ws", user.Token)
	require.Eventually(t, func() bool { return s.hub.ConnectionCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	status, data := doRequest(t, s.App(), http.MethodPost, "/api/submissions", user.Token, hymnRequest(40))
	require.Equal(t, http.StatusCreated, status, string(data))
	created := decode[struct {
		Submission models.HymnSubmission `json:"submission"`
	}](t, data).Submission

	ev, payload := readEvent(t, adminConn)
	assert.Equal(t, notifications.EventSubmissionCreated, ev.Type)
	assert.Equal(t, created.ID, payload.SubmissionID)
	assert.Equal(t, models.StatusPending, payload.Status)

	status, _ = doRequest(t, s.App(), http.MethodPost,
		fmt.Sprintf("/api/submissions/%d/review", created.ID), admin.Token, ReviewRequest{Action: "approve"})
	require.Equal(t, http.StatusOK, status)

	ev, payload = readEvent(t, adminConn)
	assert.Equal(t, notifications.EventSubmissionReviewed, ev.Type)
	assert.Equal(t, models.StatusApproved, payload.Status)

	// The submitter hears about the review of their own hymn, not its creation.
	ev, payload = readEvent(t, userConn)
	assert.Equal(t, notifications.EventSubmissionReviewed, ev.Type)
	assert.Equal(t, created.ID, payload.SubmissionID)
}

func TestWebsocketFeed_AdminRouteRejectsUsers(t *testing.T) {
	s := newTestServer(t, true)
	addr := listen(t, s)
	user := register(t, s.App(), "curious")

	_, resp, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/api/ws/admin?token=%s", addr, user.Token), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/ws", addr), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
