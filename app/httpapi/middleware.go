package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mozilla/mozilla-ignite/pkg/jwt"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
)

type claimsKey struct{}

// CorrelationMiddleware propagates X-Correlation-ID, generating one when absent.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(attr.CorrelationIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(attr.CorrelationIDKey, id)
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}

// CORSMiddleware sets CORS headers for the configured origins.
// When allowedOrigins is empty, no CORS headers are added.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+attr.CorrelationIDKey)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware requires a valid bearer token and stores its claims.
func AuthMiddleware(tokens jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := tokens.ValidateToken(raw)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireJudge lets through only tokens that carry the judge capability.
func RequireJudge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || !claims.IsJudge {
			WriteError(w, http.StatusForbidden, "Judges only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff lets through only staff tokens.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || !claims.IsStaff {
			WriteError(w, http.StatusForbidden, "Staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims stores claims in ctx. Handler tests use it to skip token parsing.
func WithClaims(ctx context.Context, claims *jwt.ProfileClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the request's claims.
func ClaimsFrom(ctx context.Context) (*jwt.ProfileClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.ProfileClaims)
	return claims, ok && claims != nil
}
