package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer a.Close()
	b, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer b.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	event := service.AdEvent{UserID: "user123", AdType: "video", Status: "completed", Timestamp: 1700000000000}
	hub.Publish(event)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got service.AdEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, event, got)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(Options{SendBuffer: 1})
	slow := &subscriber{send: make(chan []byte, 1)}
	require.True(t, hub.add(slow))

	hub.Publish(service.AdEvent{UserID: "u", AdType: "video", Status: "started"})
	assert.Equal(t, 1, hub.Subscribers())

	hub.Publish(service.AdEvent{UserID: "u", AdType: "video", Status: "completed"})
	assert.Equal(t, 0, hub.Subscribers())
	assert.EqualValues(t, 1, hub.Dropped())

	// 缓冲里的消息仍可读出，随后通道关闭
	_, ok := <-slow.send
	assert.True(t, ok)
	_, ok = <-slow.send
	assert.False(t, ok)
}

func TestHubOriginPolicy(t *testing.T) {
	hub := NewHub(Options{AllowedOrigins: []string{"https://admin.example.com"}})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	_, resp, err := dial(t, srv, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, http.Header{"Origin": {"https://admin.example.com"}})
	require.NoError(t, err)
	conn.Close()

	conn, _, err = dial(t, srv, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestHubRefusesAfterClose(t *testing.T) {
	hub := NewHub(Options{})
	hub.Close()
	assert.False(t, hub.add(&subscriber{send: make(chan []byte, 1)}))
	var nilHub *Hub
	nilHub.Publish(service.AdEvent{})
	assert.Zero(t, nilHub.Subscribers())
}
