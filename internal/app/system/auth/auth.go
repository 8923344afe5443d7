// Package auth resolves the acting user of a request from a bearer identity
// token or a session cookie, and guards routes by sign-in and role.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the actor stored in ctx.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey).(models.Actor)
	return a, ok
}

// CurrentActor returns the signed-in actor of r.
func CurrentActor(r *http.Request) (models.Actor, bool) {
	return ActorFrom(r.Context())
}

// RequireSignedIn rejects requests without an actor with a JSON 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentActor(r); !ok {
			httpjson.Unauthorized(w, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through actors holding one of the allowed roles. Missing
// actors get a 401 and the wrong role a 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentActor(r)
			if !ok {
				httpjson.Unauthorized(w, "sign in required")
				return
			}
			if _, has := set[strings.ToLower(a.Role)]; !has {
				httpjson.Write(w, http.StatusForbidden, httpjson.ErrorBody{Error: "forbidden", Code: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
