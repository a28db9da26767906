package middleware

import (
	"errors"
	"net/http"
	"strings"

	"catmenu/pkg/auth"
	pkgerrors "catmenu/pkg/errors"

	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Authenticate validates the bearer token and stores its claims in the
// request context.
func Authenticate(validator TokenValidator, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)

				message := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					message = "Token has expired"
				case errors.Is(err, auth.ErrInvalidSignature):
					message = "Invalid token signature"
				}
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(message).WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated callers lacking role
func RequireRole(role string, errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}
			if !claims.HasRole(role) {
				errHandler.Handle(w, r, pkgerrors.NewForbiddenError("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireNonce checks the anti-replay header of state-changing requests.
// Safe methods pass through.
func RequireNonce(verifier auth.NonceVerifier, errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
				userID = claims.UserID
			}

			if err := verifier.VerifyNonce(r.Context(), userID, r.Header.Get(auth.NonceHeader)); err != nil {
				if errors.Is(err, auth.ErrMissingNonce) || errors.Is(err, auth.ErrReusedNonce) {
					err = pkgerrors.NewForbiddenError("Request nonce rejected").WithCause(err)
				}
				errHandler.Handle(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
