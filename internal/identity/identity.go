// Package identity resolves who is making a request. A caller is either an
// anonymous browser session or a registered account.
package identity

import (
	"context"
	"net/http"
	"strings"

	"pokertable/internal/domain"
	"pokertable/pkg/errors"

	"github.com/google/uuid"
)

const (
	// HeaderSessionToken carries an anonymous session token
	HeaderSessionToken = "X-Session-Token"
	// CookieSession is the cookie variant of HeaderSessionToken
	CookieSession = "pt_session"
)

// Scheme distinguishes the kinds of identity
type Scheme string

const (
	SchemeSession Scheme = "session"
	SchemeAccount Scheme = "account"
)

// Identity is the scheme-qualified key a participant is looked up by
type Identity struct {
	Scheme Scheme
	Key    string
}

// Session returns an anonymous session identity
func Session(token string) Identity {
	return Identity{Scheme: SchemeSession, Key: token}
}

// Account returns an account identity keyed by email
func Account(email string) Identity {
	return Identity{Scheme: SchemeAccount, Key: email}
}

// IsZero reports whether the identity is unset
func (i Identity) IsZero() bool {
	return i.Key == ""
}

func (i Identity) String() string {
	return string(i.Scheme) + "/" + i.Key
}

type contextKey struct{}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && !id.IsZero()
}

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateJWTToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// Resolver derives the identity of an HTTP request
type Resolver struct {
	tokens   TokenValidator
	newToken func() string
}

// NewResolver creates a resolver. tokens may be nil when accounts are disabled.
func NewResolver(tokens TokenValidator) *Resolver {
	return &Resolver{
		tokens:   tokens,
		newToken: func() string { return uuid.NewString() },
	}
}

// Resolve returns the caller's identity. A bearer token wins over a session
// token; with neither, a new session is minted and minted is true. An invalid
// bearer token is an authentication error.
func (r *Resolver) Resolve(req *http.Request) (id Identity, minted bool, err error) {
	if bearer := BearerToken(req); bearer != "" && r.tokens != nil {
		claims, err := r.tokens.ValidateJWTToken(req.Context(), bearer)
		if err != nil {
			return Identity{}, false, err
		}
		return Account(claims.Email), false, nil
	}

	if token := SessionToken(req); token != "" {
		parsed, err := uuid.Parse(token)
		if err != nil {
			return Identity{}, false, errors.NewValidationError("Malformed session token", nil)
		}
		// one participant per UUID regardless of how it was spelled
		return Session(parsed.String()), false, nil
	}

	return Session(r.newToken()), true, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionToken reads the session token from the header, falling back to the cookie
func SessionToken(req *http.Request) string {
	if token := strings.TrimSpace(req.Header.Get(HeaderSessionToken)); token != "" {
		return token
	}
	if cookie, err := req.Cookie(CookieSession); err == nil {
		return cookie.Value
	}
	return ""
}
