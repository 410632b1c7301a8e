package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"pokertable/internal/domain"
	"pokertable/internal/metrics"
	"pokertable/internal/repository"
	"pokertable/pkg/errors"

	"go.uber.org/zap"
)

type VotingService struct {
	store     repository.Store
	cache     *CacheService
	metrics   metrics.Recorder
	voteRange domain.VoteRange
	logger    *zap.Logger
}

func NewVotingService(store repository.Store, cache *CacheService, recorder metrics.Recorder, voteRange domain.VoteRange, logger *zap.Logger) *VotingService {
	return &VotingService{
		store:     store,
		cache:     cache,
		metrics:   recorder,
		voteRange: voteRange,
		logger:    logger,
	}
}

// VoteRange returns the accepted vote interval
func (s *VotingService) VoteRange() domain.VoteRange {
	return s.voteRange
}

// CastVote records a participant's vote on the table it is bound to.
// Membership is checked before the vote value, so voting at the wrong table
// is a mismatch whatever the value. The table row is share-locked before the
// participant row, the same order CloseTable uses, so a vote either lands
// before a close reads the votes or sees the table already closed.
func (s *VotingService) CastVote(ctx context.Context, participantID, tableID int64, vote *int) (*domain.Participant, error) {
	var updated *domain.Participant
	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		table, err := repos.Tables.GetByID(ctx, tableID, repository.LockShare)
		if err != nil {
			return err
		}
		if table == nil {
			return errors.NewNotFoundError("Table not found")
		}

		participant, err := repos.Participants.GetByID(ctx, participantID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if participant == nil {
			return errors.NewNotFoundError("Participant not found")
		}

		if !participant.IsBoundTo(tableID) {
			return errors.NewMembershipMismatchError("Participant is not seated at this table")
		}
		if err := s.validateVote(vote); err != nil {
			return err
		}

		value := *vote
		participant.Vote = &value
		if err := repos.Participants.Update(ctx, participant); err != nil {
			return err
		}

		if table.Closed {
			s.logger.Warn("Vote stored on closed table",
				zap.Int64("participant_id", participantID),
				zap.Int64("table_id", tableID))
		}

		updated = participant
		return nil
	})
	if err != nil {
		s.metrics.RecordVoteRejected(string(errors.TypeOf(err)))
		return nil, wrapInternal(err, "Failed to cast vote")
	}

	s.cache.InvalidateTable(ctx, tableID)
	s.metrics.RecordVoteCast()
	s.logger.Info("Vote cast",
		zap.Int64("participant_id", participantID),
		zap.Int64("table_id", tableID),
		zap.Int("vote", *vote))

	return updated, nil
}

func (s *VotingService) validateVote(vote *int) error {
	if vote == nil {
		return errors.NewInvalidVoteError("Vote is required", nil)
	}
	if !s.voteRange.Contains(*vote) {
		return errors.NewInvalidVoteError(
			fmt.Sprintf("Vote must be between %d and %d", s.voteRange.Min, s.voteRange.Max),
			map[string]interface{}{
				"vote": *vote,
				"min":  s.voteRange.Min,
				"max":  s.voteRange.Max,
			})
	}
	return nil
}

// IsVoteMissing reports whether the participant has not voted in the current round
func (s *VotingService) IsVoteMissing(ctx context.Context, participantID int64) (bool, error) {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return false, err
	}
	return p.IsVoteMissing(), nil
}

// HasCastVote reports whether the participant holds a vote in the current round
func (s *VotingService) HasCastVote(ctx context.Context, participantID int64) (bool, error) {
	missing, err := s.IsVoteMissing(ctx, participantID)
	if err != nil {
		return false, err
	}
	return !missing, nil
}

// GetParticipant loads a participant or fails with NotFound
func (s *VotingService) GetParticipant(ctx context.Context, participantID int64) (*domain.Participant, error) {
	p, err := s.store.Repositories().Participants.GetByID(ctx, participantID, repository.LockNone)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load participant")
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Participant not found")
	}
	return p, nil
}

// ListParticipants returns the participants bound to a table
func (s *VotingService) ListParticipants(ctx context.Context, tableID int64) ([]*domain.Participant, error) {
	repos := s.store.Repositories()

	table, err := repos.Tables.GetByID(ctx, tableID, repository.LockNone)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load table")
	}
	if table == nil {
		return nil, errors.NewNotFoundError("Table not found")
	}

	participants, err := repos.Participants.ListByTable(ctx, tableID, repository.LockNone)
	if err != nil {
		return nil, wrapInternal(err, "Failed to list participants")
	}
	return participants, nil
}

// wrapInternal passes application errors through and wraps anything else as internal
func wrapInternal(err error, message string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewInternalError(message, err)
}
