package service

import (
	"context"
	"strings"
	"time"

	"pokertable/internal/domain"
	"pokertable/internal/metrics"
	"pokertable/internal/repository"
	"pokertable/pkg/errors"

	"go.uber.org/zap"
)

const maxTableNameLength = 255

// TableService manages the table lifecycle: OPEN until a successful close, then CLOSED for good
type TableService struct {
	store   repository.Store
	cache   *CacheService
	metrics metrics.Recorder
	policy  domain.TablePolicy
	logger  *zap.Logger
	now     func() time.Time
}

func NewTableService(store repository.Store, cache *CacheService, recorder metrics.Recorder, policy domain.TablePolicy, logger *zap.Logger) *TableService {
	return &TableService{
		store:   store,
		cache:   cache,
		metrics: recorder,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateTable opens a new table. An empty name becomes "Blank".
func (s *TableService) CreateTable(ctx context.Context, name string) (*domain.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.BlankTableName
	}
	if len(name) > maxTableNameLength {
		return nil, errors.NewValidationError("Table name is too long", map[string]interface{}{
			"max_length": maxTableNameLength,
		})
	}

	table := &domain.Table{Name: name}
	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if s.policy == domain.TablePolicySingle {
			if err := repos.Tables.LockCreation(ctx); err != nil {
				return err
			}
			open, err := repos.Tables.ListOpen(ctx)
			if err != nil {
				return err
			}
			if len(open) > 0 {
				return errors.NewConflictingActiveTableError("An active table already exists")
			}
		}
		return repos.Tables.Create(ctx, table)
	})
	if err != nil {
		return nil, wrapInternal(err, "Failed to create table")
	}

	s.metrics.RecordTableCreated()
	s.logger.Info("Table created", zap.Int64("table_id", table.ID), zap.String("name", table.Name))
	return table, nil
}

// GetActiveTable returns the oldest open table, creating "Default Table" when none is open.
// This is a read-or-create.
func (s *TableService) GetActiveTable(ctx context.Context) (*domain.Table, error) {
	var active *domain.Table
	created := false

	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Tables.LockCreation(ctx); err != nil {
			return err
		}
		open, err := repos.Tables.ListOpen(ctx)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			active = open[0]
			return nil
		}

		active = &domain.Table{Name: domain.DefaultTableName}
		created = true
		return repos.Tables.Create(ctx, active)
	})
	if err != nil {
		return nil, wrapInternal(err, "Failed to resolve active table")
	}

	if created {
		s.metrics.RecordTableCreated()
		s.logger.Info("Default table created", zap.Int64("table_id", active.ID))
	}
	return active, nil
}

// ListActiveTables returns every open table, oldest first
func (s *TableService) ListActiveTables(ctx context.Context) ([]*domain.Table, error) {
	tables, err := s.store.Repositories().Tables.ListOpen(ctx)
	if err != nil {
		return nil, wrapInternal(err, "Failed to list active tables")
	}
	return tables, nil
}

// GetTable loads a table or fails with NotFound
func (s *TableService) GetTable(ctx context.Context, tableID int64) (*domain.Table, error) {
	table, err := s.store.Repositories().Tables.GetByID(ctx, tableID, repository.LockNone)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load table")
	}
	if table == nil {
		return nil, errors.NewNotFoundError("Table not found")
	}
	return table, nil
}

// GetTableStatus returns the table with its round progress
func (s *TableService) GetTableStatus(ctx context.Context, tableID int64) (*domain.TableStatus, error) {
	return s.cache.GetTableStatus(ctx, tableID, func(ctx context.Context) (*domain.TableStatus, error) {
		table, err := s.GetTable(ctx, tableID)
		if err != nil {
			return nil, err
		}

		participants, err := s.store.Repositories().Participants.ListByTable(ctx, tableID, repository.LockNone)
		if err != nil {
			return nil, wrapInternal(err, "Failed to list participants")
		}
		return domain.NewTableStatus(*table, participants), nil
	})
}

// CloseTable snapshots every vote into participation records and closes the table.
// It fails with NotEveryoneVoted, leaving everything untouched, unless at least one
// participant is seated and all of them have voted.
func (s *TableService) CloseTable(ctx context.Context, tableID int64) error {
	var written int

	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		table, err := repos.Tables.GetByID(ctx, tableID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if table == nil {
			return errors.NewNotFoundError("Table not found")
		}
		if table.Closed {
			return errors.NewInvalidStateError("Table is already closed")
		}

		participants, err := repos.Participants.ListByTable(ctx, tableID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if err := checkEveryoneVoted(participants); err != nil {
			return err
		}

		for _, p := range participants {
			record := &domain.ParticipationRecord{
				ParticipantID: p.ID,
				TableID:       tableID,
				Vote:          *p.Vote,
			}
			if err := repos.Participations.Create(ctx, record); err != nil {
				return err
			}
		}

		if _, err := repos.Participants.ClearVotesForTable(ctx, tableID); err != nil {
			return err
		}

		closed, err := repos.Tables.MarkClosed(ctx, tableID, s.now())
		if err != nil {
			return err
		}
		if !closed {
			return errors.NewInvalidStateError("Table is already closed")
		}

		written = len(participants)
		return nil
	})
	if err != nil {
		s.metrics.RecordCloseRejected(string(errors.TypeOf(err)))
		return wrapInternal(err, "Failed to close table")
	}

	s.cache.InvalidateTable(ctx, tableID)
	s.metrics.RecordTableClosed(written)
	s.logger.Info("Table closed", zap.Int64("table_id", tableID), zap.Int("records", written))
	return nil
}

func checkEveryoneVoted(participants []*domain.Participant) error {
	if len(participants) == 0 {
		return errors.NewNotEveryoneVotedError("No participants are seated at this table", map[string]interface{}{
			"participant_count": 0,
			"voted_count":       0,
		})
	}

	pending := make([]int64, 0)
	for _, p := range participants {
		if p.IsVoteMissing() {
			pending = append(pending, p.ID)
		}
	}
	if len(pending) > 0 {
		return errors.NewNotEveryoneVotedError("Not every participant has voted", map[string]interface{}{
			"participant_count":       len(participants),
			"voted_count":             len(participants) - len(pending),
			"pending_participant_ids": pending,
		})
	}
	return nil
}

// ResetAllVotes clears the votes of everyone at an open table
func (s *TableService) ResetAllVotes(ctx context.Context, tableID int64) error {
	var cleared int64

	err := s.store.WithTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		table, err := repos.Tables.GetByID(ctx, tableID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if table == nil {
			return errors.NewNotFoundError("Table not found")
		}
		if table.Closed {
			return errors.NewInvalidStateError("Cannot reset votes on a closed table")
		}

		cleared, err = repos.Participants.ClearVotesForTable(ctx, tableID)
		return err
	})
	if err != nil {
		return wrapInternal(err, "Failed to reset votes")
	}

	s.cache.InvalidateTable(ctx, tableID)
	s.metrics.RecordVotesReset()
	s.logger.Info("Votes reset", zap.Int64("table_id", tableID), zap.Int64("cleared", cleared))
	return nil
}

// GetPastTablesForParticipant returns the closed tables a participant has a participation record on
func (s *TableService) GetPastTablesForParticipant(ctx context.Context, participantID int64) ([]*domain.Table, error) {
	if err := s.requireParticipant(ctx, participantID); err != nil {
		return nil, err
	}

	tables, err := s.store.Repositories().Tables.ListClosedForParticipant(ctx, participantID)
	if err != nil {
		return nil, wrapInternal(err, "Failed to list past tables")
	}

	past := make([]*domain.Table, 0, len(tables))
	for _, t := range tables {
		if t.Closed {
			past = append(past, t)
		}
	}
	return past, nil
}

// GetParticipationHistory returns a participant's participation records, oldest first
func (s *TableService) GetParticipationHistory(ctx context.Context, participantID int64) ([]*domain.ParticipationRecord, error) {
	if err := s.requireParticipant(ctx, participantID); err != nil {
		return nil, err
	}

	records, err := s.store.Repositories().Participations.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load participation history")
	}
	return records, nil
}

// GetTableResults returns the participation records written when a table closed
func (s *TableService) GetTableResults(ctx context.Context, tableID int64) ([]*domain.ParticipationRecord, error) {
	table, err := s.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !table.Closed {
		return nil, errors.NewInvalidStateError("Table is still open")
	}

	records, err := s.store.Repositories().Participations.ListByTable(ctx, tableID)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load table results")
	}
	return records, nil
}

func (s *TableService) requireParticipant(ctx context.Context, participantID int64) error {
	p, err := s.store.Repositories().Participants.GetByID(ctx, participantID, repository.LockNone)
	if err != nil {
		return wrapInternal(err, "Failed to load participant")
	}
	if p == nil {
		return errors.NewNotFoundError("Participant not found")
	}
	return nil
}
