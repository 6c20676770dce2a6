package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestTrafficLogging_TagsToolCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	next := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return &sdkmcp.CallToolResult{IsError: true}, nil
	}
	handler := trafficLoggingMiddleware(logger, "in")(next)

	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "get_experiment"}}
	_, err := handler(context.WithValue(context.Background(), actorIDKey, "user-2"), "tools/call", req)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "msg=\"mcp request\"")
	require.Contains(t, out, "tool=get_experiment")
	require.Contains(t, out, "actor_id=user-2")
	require.Contains(t, out, "tool_error=true")
}

func TestTrafficLogging_SkipsWhenDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	called := false
	next := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		called = true
		return nil, nil
	}
	_, err := trafficLoggingMiddleware(logger, "in")(next)(context.Background(), "ping", nil)
	require.NoError(t, err)
	require.True(t, called)
	require.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "<nil>", truncate(nil))
	require.Equal(t, `{"a":1}`, truncate(map[string]int{"a": 1}))

	long := truncate(strings.Repeat("x", maxLoggedPayload*2))
	require.True(t, strings.HasSuffix(long, "...(truncated)"))
	require.Len(t, long, maxLoggedPayload+len("...(truncated)"))
}
