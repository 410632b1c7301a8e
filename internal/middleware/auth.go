package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ClaimsContextKey is the key for verified token claims in context
	ClaimsContextKey ContextKey = "claims"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// sessionCookieMaxAge keeps anonymous sessions for 30 days
const sessionCookieMaxAge = 30 * 24 * 60 * 60

// IdentityResolver derives the caller identity from a request
type IdentityResolver interface {
	Resolve(r *http.Request) (identity.Identity, bool, error)
}

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateJWTToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// Identity resolves the caller and stores the identity in the request context.
// A freshly minted session token is returned in a header and a cookie.
func Identity(resolver IdentityResolver, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, minted, err := resolver.Resolve(r)
			if err != nil {
				writeErrorResponse(w, r, errors.As(err), logger)
				return
			}

			if minted {
				w.Header().Set(identity.HeaderSessionToken, id.Key)
				http.SetCookie(w, &http.Cookie{
					Name:     identity.CookieSession,
					Value:    id.Key,
					Path:     "/",
					MaxAge:   sessionCookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				logger.WithField("request_id", GetRequestID(r.Context())).Debug("Minted session token")
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

// Auth requires a valid bearer token and stores its claims in the request context
func Auth(tokens TokenValidator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.BearerToken(r)
			if token == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			claims, err := tokens.ValidateJWTToken(r.Context(), token)
			if err != nil {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = identity.WithIdentity(ctx, identity.Account(claims.Email))

			logger.WithField("participant_id", claims.Sub).Debug("Account authenticated")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the claims stored by Auth
func GetClaims(ctx context.Context) (*domain.AuthClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*domain.AuthClaims)
	return claims, ok
}

// RequestID adds a unique request ID to each request, honoring an incoming X-Request-ID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by RequestID
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// writeErrorResponse writes an AppError as the standard JSON error body
func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	requestID := GetRequestID(r.Context())
	logger.WithError(appErr).WithField("request_id", requestID).Warn("Request rejected")

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = requestID
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
