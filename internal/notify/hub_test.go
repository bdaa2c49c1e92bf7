package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"FlowICT/internal/domain/models"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial must upgrade")
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	conn, done := dialHub(t, hub)
	defer done()

	// Registration races the broadcast; give the Run loop a beat.
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast([]byte(`{"hello":"world"}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"hello":"world"}`, string(frame))
}

func TestWSSink_PublishStreamsSignalFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	conn, done := dialHub(t, hub)
	defer done()
	time.Sleep(50 * time.Millisecond)

	sink := NewWSSink(hub)
	sig := &models.Signal{ID: "sig-1", Symbol: "XAUUSD", TradeType: models.TradeBuy}
	require.NoError(t, sink.Publish(context.Background(), sig))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.Signal
	require.NoError(t, json.Unmarshal(frame, &got))
	require.Equal(t, "sig-1", got.ID)
	require.Equal(t, "XAUUSD", got.Symbol)
	require.Equal(t, models.TradeBuy, got.TradeType)
}

func TestHub_ContextCancelDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	conn, done := dialHub(t, hub)
	defer done()
	time.Sleep(50 * time.Millisecond)

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "server must close the connection on shutdown")
}
