package repository

import (
	"context"
	"errors"
	"fmt"

	"pokertable/internal/domain"

	"github.com/jackc/pgx/v5"
)

const participantColumns = `id, name, email, password_hash, session_id, poker_table_id, vote, created_at, updated_at`

type postgresParticipantRepository struct {
	q dbtx
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.SessionID,
		&p.TableID,
		&p.Vote,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Participant, error) {
	p, err := scanParticipant(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a participant by ID
func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1` + lockClause(lock)

	p, err := r.getOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// FindBySessionOrEmail matches key against session_id or email
func (r *postgresParticipantRepository) FindBySessionOrEmail(ctx context.Context, key string, lock LockMode) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE session_id = $1 OR email = $1
		ORDER BY id
		LIMIT 1` + lockClause(lock)

	p, err := r.getOne(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find participant by identity: %w", err)
	}
	return p, nil
}

// GetByEmail retrieves an account participant by email
func (r *postgresParticipantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE email = $1`

	p, err := r.getOne(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by email: %w", err)
	}
	return p, nil
}

// ListByTable returns the participants bound to a table
func (r *postgresParticipantRepository) ListByTable(ctx context.Context, tableID int64, lock LockMode) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE poker_table_id = $1
		ORDER BY id` + lockClause(lock)

	rows, err := r.q.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// Create inserts a participant
func (r *postgresParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (name, email, password_hash, session_id, poker_table_id, vote)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		p.Name,
		p.Email,
		p.PasswordHash,
		p.SessionID,
		p.TableID,
		p.Vote,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// Update persists name, table binding and vote
func (r *postgresParticipantRepository) Update(ctx context.Context, p *domain.Participant) error {
	query := `
		UPDATE participants
		SET name = $2, poker_table_id = $3, vote = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query, p.ID, p.Name, p.TableID, p.Vote).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update participant %d: %w", p.ID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// ClearVotesForTable clears every vote on a table in one statement
func (r *postgresParticipantRepository) ClearVotesForTable(ctx context.Context, tableID int64) (int64, error) {
	query := `
		UPDATE participants
		SET vote = NULL, updated_at = NOW()
		WHERE poker_table_id = $1 AND vote IS NOT NULL
	`

	tag, err := r.q.Exec(ctx, query, tableID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear votes: %w", err)
	}
	return tag.RowsAffected(), nil
}
