package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nilelabs/labs/internal/domain/user"
)

// ActorHeader names the request header carrying the acting user id.
const ActorHeader = "X-Actor-Id"

// ErrUnauthorized indicates an actor that cannot be resolved.
var ErrUnauthorized = errors.New("unauthorized")

type actorKey struct{}

// ActorResolver verifies an actor id.
type ActorResolver interface {
	ResolveActor(ctx context.Context, actorID string) (string, error)
}

// ActorFromContext returns the actor id from context, if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorKey{}).(string)
	return actorID, ok
}

// WithActor stores actorID in ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorMiddleware resolves the X-Actor-Id header. Requests without the
// header act as defaultActor.
func ActorMiddleware(resolver ActorResolver, defaultActor string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actorID == "" {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), defaultActor)))
				return
			}

			if resolver != nil {
				resolved, err := resolver.ResolveActor(r.Context(), actorID)
				if errors.Is(err, ErrUnauthorized) {
					http.Error(w, "unknown actor", http.StatusUnauthorized)
					return
				}
				if err != nil {
					http.Error(w, "resolving actor", http.StatusInternalServerError)
					return
				}
				actorID = resolved
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorID)))
		})
	}
}

// UserLookup fetches a user by id.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// UserResolver accepts actor ids that name a known user.
type UserResolver struct {
	users UserLookup
}

// NewUserResolver creates a resolver backed by the user directory.
func NewUserResolver(users UserLookup) *UserResolver {
	return &UserResolver{users: users}
}

// ResolveActor returns ErrUnauthorized for unknown users.
func (r *UserResolver) ResolveActor(ctx context.Context, actorID string) (string, error) {
	u, err := r.users.Get(ctx, actorID)
	if errors.Is(err, user.ErrUserNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
