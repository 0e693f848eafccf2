package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yiblet/clipq/internal/config"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/store/memstore"
)

type testServer struct {
	*httptest.Server
	hub    *Hub
	engine *queue.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, Config{})
}

func newTestServerWithConfig(t *testing.T, cfg Config) *testServer {
	t.Helper()
	ms := memstore.NewMemoryStore()
	hub := NewHub(nil)
	settings := config.NewSettings(ms.Settings(), nil)
	engine := queue.New(ms.History(), queue.Options{Policy: settings, Notifier: hub})
	srv := New(router.New(engine, settings, nil), hub, cfg, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return &testServer{Server: ts, hub: hub, engine: engine}
}

func (ts *testServer) dispatch(t *testing.T, body string) router.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/dispatch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out router.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["count"])
	assert.EqualValues(t, queue.DefaultCapacity, body["capacity"])
}

func TestDispatchAndQueue(t *testing.T) {
	ts := newTestServer(t)

	out := ts.dispatch(t, `{"operation":"recordTextCopy","params":{"content":"from http"}}`)
	assert.True(t, out.Success)

	resp, err := http.Get(ts.URL + "/api/queue")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool                  `json:"success"`
		Data    []*store.HistoryEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "from http", body.Data[0].Content)
	assert.Equal(t, store.OriginAuto, body.Data[0].Origin)
}

func TestDispatch_UnknownOperation(t *testing.T) {
	ts := newTestServer(t)

	out := ts.dispatch(t, `{"operation":"explode"}`)
	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, router.CodeUnknownOperation, out.Error.Code)
}

func TestDispatch_WrongMethod(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/dispatch")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func postDispatch(t *testing.T, url, contentType, origin, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/dispatch", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDispatch_RequiresJSONContentType(t *testing.T) {
	ts := newTestServer(t)

	for _, ct := range []string{"text/plain", "application/x-www-form-urlencoded", ""} {
		resp := postDispatch(t, ts.URL, ct, "", `{"operation":"addText","params":{"content":"sneaky"}}`)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode, ct)
	}
	assert.Equal(t, 0, ts.engine.Len())

	resp := postDispatch(t, ts.URL, "application/json; charset=utf-8", "", `{"operation":"addText","params":{"content":"ok"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, ts.engine.Len())
}

func TestDispatch_RejectsForeignOrigin(t *testing.T) {
	ts := newTestServerWithConfig(t, Config{AllowedOrigins: []string{"chrome-extension://abcdef"}})
	require.NoError(t, ts.engine.RecordTextCopy(context.Background(), "keep me"))

	resp := postDispatch(t, ts.URL, "application/json", "https://evil.example", `{"operation":"clearAll"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, ts.engine.Len())

	resp = postDispatch(t, ts.URL, "application/json", "chrome-extension://abcdef", `{"operation":"getCount"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postDispatch(t, ts.URL, "application/json", ts.URL, `{"operation":"getCount"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOriginPolicy_Allow(t *testing.T) {
	p := NewOriginPolicy([]string{" chrome-extension://ABC/ "})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same origin", "http://127.0.0.1:7645", true},
		{"listed", "chrome-extension://abc", true},
		{"other site", "https://evil.example", false},
		{"other port", "http://127.0.0.1:9999", false},
		{"garbage", "://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:7645/status", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, p.Allow(r))
		})
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatch(t, `{"operation":"addText","params":{"content":"counted"}}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "clipq_queue_entries")
	assert.Contains(t, string(body), `clipq_entries_recorded_total{kind="text",origin="manual"}`)
}

func TestWebsocket_StreamsCounts(t *testing.T) {
	ts := newTestServer(t)
	ts.hub.NotifyCount(0)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() CountMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg CountMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, CountMessage{Type: "count", Count: 0}, read())

	ts.dispatch(t, `{"operation":"addText","params":{"content":"one"}}`)
	assert.Equal(t, CountMessage{Type: "count", Count: 1}, read())

	ts.dispatch(t, `{"operation":"clearAll"}`)
	assert.Equal(t, CountMessage{Type: "count", Count: 0}, read())
	assert.Equal(t, 1, ts.hub.Clients())
}

func TestWebsocket_RequiresUpgrade(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebsocket_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(r.Context(), w, r)
	}))
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Clients())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {ts.URL}})
	require.NoError(t, err)
	conn.Close()
}

func TestHub_NotifyWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.NotifyCount(3)
	assert.Equal(t, 0, hub.Clients())
}

func TestServe_StopsOnCancel(t *testing.T) {
	ms := memstore.NewMemoryStore()
	hub := NewHub(nil)
	engine := queue.New(ms.History(), queue.Options{Notifier: hub})
	srv := New(router.New(engine, nil, nil), hub, Config{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/status")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
