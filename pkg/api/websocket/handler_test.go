package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/itemapi/internal/application/items"
	"github.com/aescanero/itemapi/pkg/adapters/metrics/prometheus"
	api "github.com/aescanero/itemapi/pkg/api/http"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, origins []string, readLimit int64) *httptest.Server {
	t.Helper()

	validator, err := items.NewValidator()
	require.NoError(t, err)
	metrics := prometheus.NewCollector()
	logger := zap.NewNop()

	server := api.NewServer(&api.Config{
		AllowedOrigins: origins,
		MaxBodyBytes:   1 << 20,
		Validator:      validator,
		Metrics:        metrics,
		Logger:         logger,
	})
	server.SetupWebSocket(NewHandler(&Config{
		Validator:      validator,
		Metrics:        metrics,
		AllowedOrigins: api.NewOriginMatcher(origins),
		MaxMessageSize: readLimit,
		Logger:         logger,
	}))

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/items"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Reply {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestItemStreamAcceptsAndRejects(t *testing.T) {
	ts := newTestServer(t, []string{"*"}, 0)
	conn := dial(t, ts, nil)

	reply := roundTrip(t, conn, `{"name": "widget", "price": 9.99}`)
	assert.Equal(t, StatusCreated, reply.Status)
	require.NotNil(t, reply.Item)
	assert.Equal(t, items.Item{Name: "widget", Price: "9.99"}, *reply.Item)
	assert.Nil(t, reply.Error)

	reply = roundTrip(t, conn, `{"name": "widget", "price": "free"}`)
	assert.Equal(t, StatusRejected, reply.Status)
	assert.Nil(t, reply.Item)
	require.NotNil(t, reply.Error)
	assert.Equal(t, api.CodeValidationFailed, reply.Error.Code)
	assert.Contains(t, reply.Error.Message, "schema")

	reply = roundTrip(t, conn, `not json`)
	assert.Equal(t, StatusRejected, reply.Status)
	require.NotNil(t, reply.Error)
	assert.Equal(t, api.CodeInvalidJSON, reply.Error.Code)

	// the connection keeps working after rejections
	reply = roundTrip(t, conn, `{"name": "gadget", "price": 1}`)
	assert.Equal(t, StatusCreated, reply.Status)
}

func TestItemStreamClosesOnBinaryFrame(t *testing.T) {
	ts := newTestServer(t, []string{"*"}, 0)
	conn := dial(t, ts, nil)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseUnsupportedData), "got %v", err)
}

func TestItemStreamClosesOnOversizedFrame(t *testing.T) {
	ts := newTestServer(t, []string{"*"}, 64)
	conn := dial(t, ts, nil)

	reply := roundTrip(t, conn, `{"name": "widget", "price": 1}`)
	assert.Equal(t, StatusCreated, reply.Status)

	msg := `{"name": "` + strings.Repeat("w", 128) + `", "price": 1}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestItemStreamRejectsDisallowedOrigin(t *testing.T) {
	ts := newTestServer(t, []string{"http://localhost:3000"}, 0)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/items"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, ts, http.Header{"Origin": {"http://localhost:3000"}})
	reply := roundTrip(t, conn, `{"name": "widget", "price": 2}`)
	assert.Equal(t, StatusCreated, reply.Status)
}
