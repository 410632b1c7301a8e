package service

import (
	"context"
	"time"

	"pokertable/internal/domain"
)

// TokenService hashes passwords and issues and validates access tokens
type TokenService interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) bool
	IssueToken(p *domain.Participant) (string, time.Time, error)
	ValidateJWTToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// Services aggregates the application services
type Services struct {
	Voting   *VotingService
	Tables   *TableService
	Join     *JoinService
	Accounts *AccountService
	Stories  *UserStoryService
	Cache    *CacheService
}
