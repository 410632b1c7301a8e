package service

import (
	"context"
	stderrors "errors"
	"strings"

	"pokertable/internal/domain"
	"pokertable/internal/identity"
	"pokertable/internal/metrics"
	"pokertable/internal/repository"
	"pokertable/pkg/errors"

	"go.uber.org/zap"
)

const maxParticipantNameLength = 255

// JoinService binds participant identities to tables
type JoinService struct {
	store   repository.Store
	cache   *CacheService
	metrics metrics.Recorder
	logger  *zap.Logger
}

func NewJoinService(store repository.Store, cache *CacheService, recorder metrics.Recorder, logger *zap.Logger) *JoinService {
	return &JoinService{
		store:   store,
		cache:   cache,
		metrics: recorder,
		logger:  logger,
	}
}

// JoinTable seats the participant behind ident at a table. An unknown
// session creates a participant named name; rejoining the same table is a
// no-op that keeps the vote; moving from another table clears the vote.
func (s *JoinService) JoinTable(ctx context.Context, ident identity.Identity, name string, tableID int64) (*domain.Participant, *domain.Table, error) {
	if ident.IsZero() {
		return nil, nil, errors.NewValidationError("Identity is required", nil)
	}
	name = strings.TrimSpace(name)
	if len(name) > maxParticipantNameLength {
		return nil, nil, errors.NewValidationError("Name is too long", map[string]interface{}{
			"max_length": maxParticipantNameLength,
		})
	}

	var (
		participant *domain.Participant
		table       *domain.Table
		previousID  *int64
		outcome     string
	)

	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		table, err = repos.Tables.GetByID(ctx, tableID, repository.LockShare)
		if err != nil {
			return err
		}
		if table == nil {
			return errors.NewNotFoundError("Table not found")
		}
		if table.Closed {
			return errors.NewInvalidStateError("Table is closed")
		}

		participant, err = repos.Participants.FindBySessionOrEmail(ctx, ident.Key, repository.LockUpdate)
		if err != nil {
			return err
		}

		switch {
		case participant == nil:
			if ident.Scheme == identity.SchemeAccount {
				return errors.NewAuthenticationError("Account no longer exists")
			}
			if name == "" {
				return errors.NewValidationError("Name is required", nil)
			}
			participant = &domain.Participant{Name: name, SessionID: ident.Key}
			participant.BindTo(tableID)
			if err := repos.Participants.Create(ctx, participant); err != nil {
				if stderrors.Is(err, repository.ErrDuplicate) {
					return errors.NewConflictError("Session is already registered")
				}
				return err
			}
			outcome = metrics.JoinCreated

		case participant.IsBoundTo(tableID):
			outcome = metrics.JoinUnchanged

		default:
			previousID = participant.TableID
			participant.BindTo(tableID)
			if err := repos.Participants.Update(ctx, participant); err != nil {
				return err
			}
			outcome = metrics.JoinRebound
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrapInternal(err, "Failed to join table")
	}

	if outcome != metrics.JoinUnchanged {
		s.cache.InvalidateTable(ctx, tableID)
		if previousID != nil {
			s.cache.InvalidateTable(ctx, *previousID)
		}
	}
	s.metrics.RecordJoin(outcome)
	s.logger.Info("Participant joined table",
		zap.Int64("participant_id", participant.ID),
		zap.Int64("table_id", tableID),
		zap.String("scheme", string(ident.Scheme)),
		zap.String("outcome", outcome))

	return participant, table, nil
}

// CreateParticipant adds a named participant to a table without a session
func (s *JoinService) CreateParticipant(ctx context.Context, tableID int64, name string) (*domain.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("Name is required", nil)
	}
	if len(name) > maxParticipantNameLength {
		return nil, errors.NewValidationError("Name is too long", map[string]interface{}{
			"max_length": maxParticipantNameLength,
		})
	}

	var participant *domain.Participant
	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		table, err := repos.Tables.GetByID(ctx, tableID, repository.LockShare)
		if err != nil {
			return err
		}
		if table == nil {
			return errors.NewNotFoundError("Table not found")
		}
		if table.Closed {
			return errors.NewInvalidStateError("Table is closed")
		}

		participant = &domain.Participant{Name: name, SessionID: newSessionID()}
		participant.BindTo(tableID)
		return repos.Participants.Create(ctx, participant)
	})
	if err != nil {
		return nil, wrapInternal(err, "Failed to create participant")
	}

	s.cache.InvalidateTable(ctx, tableID)
	s.metrics.RecordJoin(metrics.JoinCreated)
	s.logger.Info("Participant created", zap.Int64("participant_id", participant.ID), zap.Int64("table_id", tableID))
	return participant, nil
}
