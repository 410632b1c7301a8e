package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pokertable/internal/domain"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "pokertable"

// tokenClaims is the JWT payload issued at login
type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Service issues and validates access tokens and hashes passwords
type Service struct {
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new auth service
func NewService(secret string, ttl time.Duration, logger *logger.Logger) *Service {
	return &Service{
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
		now:        time.Now,
	}
}

// HashPassword returns the bcrypt hash of password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash
func (s *Service) ComparePassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 token for an account participant
func (s *Service) IssueToken(p *domain.Participant) (string, time.Time, error) {
	if p.Email == nil {
		return "", time.Time{}, errors.NewValidationError("Participant has no account", nil)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		Email: *p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateJWTToken validates a token and returns its claims
func (s *Service) ValidateJWTToken(ctx context.Context, tokenString string) (*domain.AuthClaims, error) {
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Rejected access token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	if claims.Email == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no account identifier")
	}

	result := &domain.AuthClaims{
		Sub:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}
	if claims.IssuedAt != nil {
		result.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		result.Exp = claims.ExpiresAt.Unix()
	}
	return result, nil
}

// isJWTToken reports whether token has the three dot-separated JWT segments
func isJWTToken(token string) bool {
	return token != "" && strings.Count(token, ".") == 2
}
