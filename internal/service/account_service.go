package service

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"

	"pokertable/internal/domain"
	"pokertable/internal/repository"
	"pokertable/pkg/errors"

	"go.uber.org/zap"
)

const minPasswordLength = 6

// AccountService handles registered participants
type AccountService struct {
	store  repository.Store
	tokens TokenService
	logger *zap.Logger
}

func NewAccountService(store repository.Store, tokens TokenService, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account participant with a hashed password
func (s *AccountService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Participant, error) {
	name := strings.TrimSpace(req.Name)
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{}
	if name == "" {
		details["name"] = "Name cannot be empty"
	}
	if len(req.Password) < minPasswordLength {
		details["password"] = "Password must be at least 6 characters long"
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("Invalid registration", details)
	}

	hash, err := s.tokens.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewInternalError("Failed to register account", err)
	}

	participant := &domain.Participant{
		Name:         name,
		Email:        &email,
		PasswordHash: hash,
		SessionID:    newSessionID(),
	}

	repos := s.store.Repositories()
	existing, err := repos.Participants.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapInternal(err, "Failed to register account")
	}
	if existing != nil {
		return nil, errors.NewConflictError("Email is already registered")
	}

	if err := repos.Participants.Create(ctx, participant); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("Email is already registered")
		}
		return nil, wrapInternal(err, "Failed to register account")
	}

	s.logger.Info("Account registered", zap.Int64("participant_id", participant.ID))
	return participant, nil
}

// Login verifies credentials and issues an access token
func (s *AccountService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, errors.NewAuthenticationError("Invalid email or password")
	}

	participant, err := s.store.Repositories().Participants.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapInternal(err, "Failed to log in")
	}
	if participant == nil || !s.tokens.ComparePassword(participant.PasswordHash, req.Password) {
		s.logger.Debug("Login rejected")
		return nil, errors.NewAuthenticationError("Invalid email or password")
	}

	token, expiresAt, err := s.tokens.IssueToken(participant)
	if err != nil {
		return nil, wrapInternal(err, "Failed to issue token")
	}

	s.logger.Info("Account logged in", zap.Int64("participant_id", participant.ID))
	return &domain.LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt.Unix(),
		Participant: participant,
	}, nil
}

// GetByEmail loads an account participant or fails with NotFound
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	participant, err := s.store.Repositories().Participants.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load account")
	}
	if participant == nil {
		return nil, errors.NewNotFoundError("Account not found")
	}
	return participant, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", errors.NewValidationError("Email cannot be empty", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.NewValidationError("Email should be valid", nil)
	}
	return email, nil
}
