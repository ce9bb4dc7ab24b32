package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"databoard/pkg/contracts/events"
)

func testHubLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer exposes the hub on an httptest server.
func newTestServer(hub *Hub) *httptest.Server {
	upgrader := NewUpgrader(nil)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, upgrader, w, r)
	}))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) events.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg events.Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func unmarshalData(t *testing.T, msg events.Message, dst interface{}) {
	t.Helper()
	data, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func TestHubConnectAcknowledgement(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testHubLogger())
	hub.Start()
	defer hub.Stop()

	srv := newTestServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, events.MessageTypeConnect, msg.Type)

	var connected events.Connected
	unmarshalData(t, msg, &connected)
	assert.Equal(t, "connected", connected.Status)
	assert.NotEmpty(t, connected.ClientID)
}

func TestHubBroadcastDataUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testHubLogger())
	hub.Start()
	defer hub.Stop()

	srv := newTestServer(hub)
	defer srv.Close()

	first := dial(t, srv)
	defer first.Close()
	second := dial(t, srv)
	defer second.Close()

	// Drain the connect acknowledgements.
	readMessage(t, first)
	readMessage(t, second)

	hub.BroadcastDataUpdate("ridership", "data/ridership.csv")

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, events.MessageTypeDataUpdate, msg.Type)

		var update events.DataUpdate
		unmarshalData(t, msg, &update)
		assert.Equal(t, "ridership", update.Dataset)
		assert.Equal(t, "data/ridership.csv", update.Path)
	}
}

func TestHubClientCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testHubLogger())
	hub.Start()
	defer hub.Stop()

	srv := newTestServer(hub)
	defer srv.Close()

	assert.Equal(t, 0, hub.ClientCount())

	conn := dial(t, srv)
	readMessage(t, conn)
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testHubLogger())
	hub.Start()
	hub.Stop()
	hub.Stop()
}
