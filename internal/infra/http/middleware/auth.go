package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/auth"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

type contextKey string

const actorKey contextKey = "actor"

// TokenParser verifies a session token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid token in the Authorization
// header or the session cookie.
func Authenticate(parser TokenParser, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)
			if token == "" {
				writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "Not authorized to access this route")
				return
			}

			claims, err := parser.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "Not authorized to access this route")
				return
			}

			actor := usecase.Actor{UserID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "Not authorized to access this route")
				return
			}
			if !slices.Contains(roles, actor.Role) {
				writeError(w, http.StatusForbidden, usecase.CodeForbidden,
					"User role "+string(actor.Role)+" is not authorized to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithActor(ctx context.Context, actor usecase.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (usecase.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(usecase.Actor)
	return actor, ok
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}
