package auth

import (
	"context"
	"testing"
	"time"

	"pokertable/internal/domain"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(secret string) *Service {
	s := NewService(secret, time.Hour, logger.NewNop())
	s.bcryptCost = bcrypt.MinCost
	return s
}

func accountParticipant() *domain.Participant {
	email := "dev@example.com"
	return &domain.Participant{ID: 7, Name: "Dev", Email: &email}
}

func TestIsJWTToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{"Valid JWT token", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", true},
		{"Token with too few segments", "header.payload", false},
		{"Token with too many segments", "header.payload.signature.extra", false},
		{"Token with no segments", "nosegments", false},
		{"Empty token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isJWTToken(tt.token))
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	s := newTestService("secret")

	hash, err := s.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, s.ComparePassword(hash, "correct horse"))
	assert.False(t, s.ComparePassword(hash, "wrong"))
	assert.False(t, s.ComparePassword("", "correct horse"))
}

func TestIssueAndValidateToken(t *testing.T) {
	s := newTestService("secret")
	p := accountParticipant()

	token, expiresAt, err := s.IssueToken(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := s.ValidateJWTToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Sub)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "Dev", claims.Name)
	assert.Equal(t, expiresAt.Unix(), claims.Exp)
}

func TestIssueToken_RequiresAccount(t *testing.T) {
	s := newTestService("secret")

	_, _, err := s.IssueToken(&domain.Participant{ID: 1, Name: "anon", SessionID: "abc"})
	assert.True(t, errors.Is(err, errors.ErrorTypeValidation))
}

func TestValidateJWTToken_Rejections(t *testing.T) {
	s := newTestService("secret")
	token, _, err := s.IssueToken(accountParticipant())
	require.NoError(t, err)

	expired := newTestService("secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.IssueToken(accountParticipant())
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "dev@example.com",
		"iss":   issuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		service *Service
		token   string
	}{
		{"wrong secret", newTestService("other"), token},
		{"expired", s, expiredToken},
		{"unsigned", s, noneToken},
		{"garbage", s, "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.service.ValidateJWTToken(context.Background(), tt.token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, errors.ErrorTypeAuthentication))
		})
	}
}
