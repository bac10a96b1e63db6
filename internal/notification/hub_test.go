package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := int64(7)
		if r.URL.Query().Get("user") == "8" {
			userID = 8
		}
		_ = hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server, cancel
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHubDeliversToEveryConnectionOfUser(t *testing.T) {
	hub, server, _ := startHub(t)

	phone := dial(t, server, "")
	defer phone.Close()
	laptop := dial(t, server, "")
	defer laptop.Close()
	other := dial(t, server, "?user=8")
	defer other.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 3 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline(7))

	delivered, err := hub.SendToUser(7, "new_match", map[string]int64{"match_id": 3})
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	for _, conn := range []*websocket.Conn{phone, laptop} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "new_match", msg.Type)
		assert.JSONEq(t, `{"match_id":3}`, string(msg.Data))
	}

	delivered, err = hub.SendToUser(99, "new_like", nil)
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestHubRemovesClosedConnections(t *testing.T) {
	hub, server, _ := startHub(t)

	conn := dial(t, server, "")
	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.IsOnline(7) }, time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesConnections(t *testing.T) {
	hub, server, cancel := startHub(t)

	conn := dial(t, server, "")
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
