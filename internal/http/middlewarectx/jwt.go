// Package middlewarectx holds the HTTP middleware that populates the
// request context: bearer-token authentication, staff gating and rate
// limiting.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/jwt"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
)

// Key is the context key type for request-scoped identity values.
type Key string

const (
	// UserUID is the authenticated user's uid.
	UserUID Key = "user_uid"
	// Email is the authenticated user's email.
	Email Key = "email"
	// IsStaff marks staff accounts.
	IsStaff Key = "is_staff"
)

// JWTMiddleware authenticates requests with a bearer access token and
// stores the identity claims in the request context. Refresh tokens are
// rejected here; they are only good for the refresh endpoint.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if claims.TokenType != jwt.TokenTypeAccess {
				log.Error("wrong token type", slog.String("token_type", claims.TokenType))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			ctx = context.WithValue(ctx, IsStaff, claims.IsStaff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffOnlyMiddleware rejects non-staff users. It must run after
// JWTMiddleware.
func StaffOnlyMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isStaff, ok := r.Context().Value(IsStaff).(bool)
			if !ok || !isStaff {
				log.Error("staff access required")
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("staff access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
