package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// OpsAuthConfig configures access to operational endpoints. With neither a
// secret nor a key set, the middleware lets every request through.
type OpsAuthConfig struct {
	JWTSecret    string
	APIKey       string
	APIKeyHeader string
}

type principalKey struct{}

// WithPrincipal stores the principal name in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the principal name from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// ValidateHS256 verifies a token signed with secret and returns its subject.
func ValidateHS256(secret []byte, token string) (string, error) {
	tok, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// OpsAuth accepts either a Bearer HS256 token or the static API key. Requests
// carrying neither valid credential get 401.
func OpsAuth(cfg OpsAuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = "X-API-Key"
	}
	secret := []byte(cfg.JWTSecret)

	return func(next http.Handler) http.Handler {
		if cfg.JWTSecret == "" && cfg.APIKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) > 0 {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					sub, err := ValidateHS256(secret, strings.TrimPrefix(auth, "Bearer "))
					if err == nil {
						next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), sub)))
						return
					}
					logger.Warn("ops token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
				}
			}
			if cfg.APIKey != "" {
				key := r.Header.Get(header)
				if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) == 1 {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), "api-key")))
					return
				}
			}
			writeJSONError(w, r, http.StatusUnauthorized, "Unauthorized",
				"provide a valid Bearer token or API key")
		})
	}
}
