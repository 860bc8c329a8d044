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
)

func TestPushWithoutClients(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() { h.Push("nobody", map[string]string{"a": "b"}) })
	assert.Zero(t, h.Connections("nobody"))
}

func TestServeDeliversPushes(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, "u1")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Connections("u1") == 1 }, time.Second, 10*time.Millisecond)

	h.Push("u1", map[string]string{"title": "Order ORD-000001 is Confirmed"})
	h.Push("u2", map[string]string{"title": "not for u1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Order ORD-000001 is Confirmed", msg["title"])

	conn.Close()
	assert.Eventually(t, func() bool { return h.Connections("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
