package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"owndrob/pkg/requestcontext"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "session_token"

// SessionResolver maps an opaque session token to the nickname it belongs to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (nickname string, err error)
}

// SessionToken extracts the session token from the cookie or a Bearer header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// GetNickname returns the authenticated nickname from the context.
func GetNickname(ctx context.Context) string {
	return requestcontext.Nickname(ctx)
}

// RequireSession rejects requests without a valid session and stores the
// nickname and token in the context.
func RequireSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := SessionToken(r)
			if token == "" {
				writeUnauthorized(w, "Not authenticated")
				return
			}
			nickname, err := resolver.ResolveSession(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid session")
				return
			}
			ctx = requestcontext.WithNickname(ctx, nickname)
			ctx = requestcontext.WithSessionID(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
