package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, MsgTypeConnected, hello.Type)
	return conn
}

func TestNotifier_PingPong(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p1"}))

	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypePong, msg.Type)
	assert.Equal(t, "p1", msg.ID)
}

func TestNotifier_BroadcastOnAppend(t *testing.T) {
	e, notifier := newTestServer(t, newTestSheet())
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialWS(t, srv)
	assert.Equal(t, 1, notifier.Count())

	rec := do(e, "POST", "/api/rows", []byte(`{"values": {"Time start": "1100", "Bottle (ml)": "30"}}`), "application/json")
	require.Equal(t, 201, rec.Code)

	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeSheetUpdated, msg.Type)
	assert.NotEmpty(t, msg.ID)
}

func TestNotifier_NilIsSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() { n.Broadcast(MsgTypeSheetUpdated) })
}
