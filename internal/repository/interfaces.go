package repository

import (
	"context"
	"errors"
	"time"

	"pokertable/internal/domain"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
var ErrDuplicate = errors.New("duplicate record")

// LockMode selects the row lock taken by a read inside a transaction
type LockMode int

const (
	// LockNone reads without locking
	LockNone LockMode = iota
	// LockShare blocks concurrent writers but not other share lockers
	LockShare
	// LockUpdate takes an exclusive row lock
	LockUpdate
)

// ParticipantRepository defines the interface for participant data operations.
// Lookups return nil, nil when the row does not exist.
type ParticipantRepository interface {
	// GetByID retrieves a participant by ID
	GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Participant, error)

	// FindBySessionOrEmail matches key against the session token or the account email
	FindBySessionOrEmail(ctx context.Context, key string, lock LockMode) (*domain.Participant, error)

	// GetByEmail retrieves an account participant by email
	GetByEmail(ctx context.Context, email string) (*domain.Participant, error)

	// ListByTable returns the participants currently bound to a table, ordered by ID
	ListByTable(ctx context.Context, tableID int64, lock LockMode) ([]*domain.Participant, error)

	// Create inserts a participant and fills ID and timestamps
	Create(ctx context.Context, p *domain.Participant) error

	// Update persists name, table binding and vote
	Update(ctx context.Context, p *domain.Participant) error

	// ClearVotesForTable clears the vote of every participant bound to a table
	ClearVotesForTable(ctx context.Context, tableID int64) (int64, error)
}

// TableRepository defines the interface for poker table data operations
type TableRepository interface {
	// GetByID retrieves a table by ID
	GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Table, error)

	// ListOpen returns every open table, oldest first
	ListOpen(ctx context.Context) ([]*domain.Table, error)

	// ListClosedForParticipant returns the closed tables a participant has a participation record on
	ListClosedForParticipant(ctx context.Context, participantID int64) ([]*domain.Table, error)

	// Create inserts a table and fills ID and CreatedAt
	Create(ctx context.Context, t *domain.Table) error

	// MarkClosed flips an open table to closed. It reports false when the table was not open.
	MarkClosed(ctx context.Context, id int64, closedAt time.Time) (bool, error)

	// LockCreation serializes table creation for the rest of the transaction
	LockCreation(ctx context.Context) error
}

// ParticipationRepository defines the interface for participation history operations
type ParticipationRepository interface {
	// Create inserts a participation record
	Create(ctx context.Context, record *domain.ParticipationRecord) error

	// ListByParticipant returns a participant's records, oldest first
	ListByParticipant(ctx context.Context, participantID int64) ([]*domain.ParticipationRecord, error)

	// ListByTable returns the records snapshotted when a table closed
	ListByTable(ctx context.Context, tableID int64) ([]*domain.ParticipationRecord, error)
}

// UserStoryRepository defines the interface for user story operations
type UserStoryRepository interface {
	Create(ctx context.Context, story *domain.UserStory) error
	GetByID(ctx context.Context, id int64) (*domain.UserStory, error)
	ListByTable(ctx context.Context, tableID int64) ([]*domain.UserStory, error)
	Update(ctx context.Context, story *domain.UserStory) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Participants   ParticipantRepository
	Tables         TableRepository
	Participations ParticipationRepository
	UserStories    UserStoryRepository
}

// TxFunc runs against repositories bound to a single transaction
type TxFunc func(ctx context.Context, repos *Repositories) error

// Store hands out repositories and runs transactions. A TxFunc that returns
// an error leaves no trace of its writes.
type Store interface {
	Repositories() *Repositories
	WithTx(ctx context.Context, fn TxFunc) error
	Health(ctx context.Context) error
}
