// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/auth"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/pkg/constants"
)

// AuthorizationMiddleware validates the bearer token when one is present
// and stores the resolved principal in the request context. Requests
// without a token pass through; handlers that need an actor reject them.
func AuthorizationMiddleware(jwtAuth *auth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				header = r.Header.Get(constants.AuthorizationHeader)
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			principal, err := jwtAuth.ParsePrincipal(ctx, token, slog.Default())
			if err != nil {
				slog.WarnContext(ctx, "rejecting request with invalid token", logging.ErrKey, err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_token","message":"token validation failed"}`))
				return
			}

			ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
			ctx = logging.AppendCtx(ctx, slog.String("principal", principal))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipalFromContext returns the authenticated principal, if any.
func GetPrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(constants.PrincipalContextID).(string)
	return principal, ok && principal != ""
}
