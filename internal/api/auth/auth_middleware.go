package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/shophub-api/internal/api"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

// UnauthorizedMessage is the body text of every 401 the middleware writes.
const UnauthorizedMessage = "Not authorized"

// Authenticate protects a route with a bearer token. The token is verified
// and its subject resolved in the store on every request; the resolved user
// is attached to the request context. Every rejection is the same 401.
func Authenticate(svc AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				l.DebugContext(ctx, "Missing or malformed Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			user, err := svc.Authenticate(ctx, tokenString)
			if err != nil {
				if errors.Is(err, types.ErrUnauthenticated) {
					l.DebugContext(ctx, "Bearer token rejected", slog.Any("reason", err))
					api.ErrorResponse(w, r, http.StatusUnauthorized, UnauthorizedMessage)
					return
				}
				l.ErrorContext(ctx, "Authentication lookup failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token of a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserFromContext returns the user resolved by Authenticate for this request.
func GetUserFromContext(ctx context.Context) (*types.UserAuth, bool) {
	user, ok := ctx.Value(userKey).(*types.UserAuth)
	return user, ok && user != nil
}
