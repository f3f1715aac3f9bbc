package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/config"
	"sechub/pkg/driver"
	"sechub/pkg/driver/sim"
	"sechub/pkg/protocol"
)

func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.Database.Path = filepath.Join(t.TempDir(), "sessions.db")
	return cfg
}

func newTestGateway(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	srv.forwarder.Start()

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var decoded map[string]any
	require.NoError(t, conn.ReadJSON(&decoded))
	return decoded
}

func TestNewServerWiring(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, srv.registry)
	assert.NotNil(t, srv.dispatcher)
	assert.NotNil(t, srv.forwarder)
	assert.NotNil(t, srv.store)
	assert.NotNil(t, srv.metrics)
}

func TestNewServerRejectsUnknownDriverMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Driver.Mode = "hardware"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestVersionBannerIsFirstFrame(t *testing.T) {
	_, ts := newTestGateway(t)
	conn := dialWS(t, ts)

	banner := readJSON(t, conn)
	assert.Equal(t, "version", banner["type"])
	assert.Equal(t, float64(protocol.MinSchemaVersion), banner["minSchemaVersion"])
	assert.Equal(t, float64(protocol.MaxSchemaVersion), banner["maxSchemaVersion"])
	assert.NotEmpty(t, banner["driverVersion"])
}

func TestCommandRoundTrip(t *testing.T) {
	_, ts := newTestGateway(t)
	conn := dialWS(t, ts)
	readJSON(t, conn) // banner

	require.NoError(t, conn.WriteJSON(map[string]any{
		"messageId":     "neg-1",
		"command":       "set_api_schema",
		"schemaVersion": 4,
	}))
	resp := readJSON(t, conn)
	assert.Equal(t, "result", resp["type"])
	assert.Equal(t, "neg-1", resp["messageId"])
	assert.Equal(t, true, resp["success"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"messageId": "listen-1",
		"command":   "start_listening",
	}))
	resp = readJSON(t, conn)
	require.Equal(t, true, resp["success"])
	result := resp["result"].(map[string]any)
	state := result["state"].(map[string]any)
	assert.Contains(t, state, "driver")
	assert.Contains(t, state, "stations")
	assert.Contains(t, state, "devices")
}

func TestEventDeliveredOverWebSocket(t *testing.T) {
	srv, ts := newTestGateway(t)
	conn := dialWS(t, ts)
	readJSON(t, conn) // banner

	// Wait for the session to register before emitting.
	require.Eventually(t, func() bool { return srv.registry.Count() == 1 },
		2*time.Second, 10*time.Millisecond)

	drv := srv.drv.(*sim.Driver)
	drv.Emit(driver.Event{Kind: driver.EventDriverConnected})

	frame := readJSON(t, conn)
	assert.Equal(t, "event", frame["type"])
	event := frame["event"].(map[string]any)
	assert.Equal(t, "driver", event["source"])
	assert.Equal(t, "connected", event["event"])
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestGateway(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestGateway(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionsEndpointRecordsConnections(t *testing.T) {
	srv, ts := newTestGateway(t)
	conn := dialWS(t, ts)
	readJSON(t, conn) // banner

	require.Eventually(t, func() bool { return srv.registry.Count() == 1 },
		2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sessions []map[string]any `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Sessions, 1)
}
