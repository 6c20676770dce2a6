package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ActorHeader names the HTTP header carrying the acting user id.
const ActorHeader = "X-Actor-Id"

type contextKey int

const actorIDKey contextKey = iota

// getActorID extracts the actor id from context.
func getActorID(ctx context.Context) string {
	v, _ := ctx.Value(actorIDKey).(string)
	return v
}

// ActorResolver verifies an actor id.
type ActorResolver interface {
	ResolveActor(ctx context.Context, actorID string) (string, error)
}

// actorMiddleware resolves the actor from the X-Actor-Id header on HTTP
// sessions. Stdio sessions and requests without the header act as
// defaultActor.
func actorMiddleware(resolver ActorResolver, defaultActor string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			actorID := defaultActor
			if header := headerActor(req); header != "" {
				actorID = header
				if resolver != nil {
					resolved, err := resolver.ResolveActor(ctx, header)
					if err != nil {
						return nil, fmt.Errorf("unauthorized: %w", err)
					}
					actorID = resolved
				}
			}

			ctx = context.WithValue(ctx, actorIDKey, actorID)
			return next(ctx, method, req)
		}
	}
}

func headerActor(req sdkmcp.Request) (actorID string) {
	if req == nil {
		return ""
	}
	// Some notifications carry a nil extra behind a non-nil interface.
	defer func() {
		if recover() != nil {
			actorID = ""
		}
	}()
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return ""
	}
	return strings.TrimSpace(extra.Header.Get(ActorHeader))
}
