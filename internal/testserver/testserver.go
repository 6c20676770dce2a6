// Package testserver runs a fully wired server on httptest for end-to-end
// tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nilelabs/labs/internal/app"
	"github.com/nilelabs/labs/internal/config"
	"github.com/nilelabs/labs/internal/transport"
)

// Now is the fixed clock every test server runs on.
var Now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

// New starts a seeded server on the given storage driver.
func New(t *testing.T, driver string) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Driver = driver
	if driver == config.StorageSQLite {
		cfg.Storage.Path = filepath.Join(t.TempDir(), "labs.db")
	}

	a, err := app.New(context.Background(), cfg, nil, app.WithClock(func() time.Time { return Now }))
	require.NoError(t, err)

	server := httptest.NewServer(a.HTTPHandler())
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a}
}

// Call posts a JSON-RPC request as actorID. An empty actorID sends no
// actor header. It returns the HTTP status and the decoded response.
func (ts *TestServer) Call(t *testing.T, actorID, method string, params any) (int, transport.Response) {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set(transport.ActorHeader, actorID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded transport.Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

// MustCall is Call for requests expected to succeed; it decodes the result
// into out when out is non-nil.
func (ts *TestServer) MustCall(t *testing.T, actorID, method string, params, out any) {
	t.Helper()
	status, resp := ts.Call(t, actorID, method, params)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}
