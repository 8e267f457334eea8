package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wixxidevelop/blue/pkg/messaging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startHub(t *testing.T, origins []string) (*Hub, string) {
	t.Helper()
	hub := NewHub(origins)
	r := gin.New()
	r.GET("/events", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub(t *testing.T) {
	t.Run("should stream published events", func(t *testing.T) {
		hub, url := startHub(t, nil)
		conn := dial(t, url, nil)
		require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

		event, err := messaging.NewEvent(messaging.EventTypeSystemToggled, messaging.SystemToggledEvent{IsActive: false})
		require.NoError(t, err)
		require.NoError(t, hub.Publish(context.Background(), event))

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got messaging.Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, messaging.EventTypeSystemToggled, got.Type)
	})

	t.Run("should forget clients that disconnect", func(t *testing.T) {
		hub, url := startHub(t, nil)
		conn := dial(t, url, nil)
		require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

		conn.Close()
		assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("should close clients on shutdown", func(t *testing.T) {
		hub, url := startHub(t, nil)
		conn := dial(t, url, nil)
		require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

		hub.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	})

	t.Run("should reject foreign origins", func(t *testing.T) {
		_, url := startHub(t, []string{"https://admin.example"})

		_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		conn := dial(t, url, http.Header{"Origin": {"https://admin.example"}})
		assert.NotNil(t, conn)
	})

	t.Run("should publish with no clients", func(t *testing.T) {
		hub := NewHub(nil)
		event, _ := messaging.NewEvent(messaging.EventTypeLogsCleared, nil)
		assert.NoError(t, hub.Publish(context.Background(), event))
	})
}
