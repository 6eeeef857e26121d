package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynasm-thumb2/dynasm/config"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	srv := NewServer(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHandleHealth(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/session", "application/json", nil)
	require.NoError(t, err)
	var created sessionDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID)

	buildBody, _ := json.Marshal(map[string]string{"source": "MOV R0, #1\nADD R0, R0, #1\n"})
	resp, err = http.Post(ts.URL+"/api/v1/session/"+created.ID+"/build", "application/json", bytes.NewReader(buildBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buildResult map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&buildResult))
	codeHex, ok := buildResult["code_hex"].([]any)
	require.True(t, ok)
	assert.Len(t, codeHex, 4)

	resp, err = http.Get(ts.URL + "/api/v1/session/" + created.ID + "/code")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/session/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildErrorReturnsUnprocessable(t *testing.T) {
	_, ts := testServer(t)

	resp, _ := http.Post(ts.URL+"/api/v1/session", "application/json", nil)
	var created sessionDTO
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	buildBody, _ := json.Marshal(map[string]string{"source": "NOTANOP R0, #1\n"})
	resp, err := http.Post(ts.URL+"/api/v1/session/"+created.ID+"/build", "application/json", bytes.NewReader(buildBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestWebsocketReceivesSessionEvents(t *testing.T) {
	_, ts := testServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		_, _ = http.Post(ts.URL+"/api/v1/session", "application/json", nil)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt map[string]any
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "session.created", evt["type"])
}
