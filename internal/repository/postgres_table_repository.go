package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pokertable/internal/domain"

	"github.com/jackc/pgx/v5"
)

// tableCreationLockKey is the advisory lock key guarding single-table creation
const tableCreationLockKey int64 = 0x706f6b6572

type postgresTableRepository struct {
	q dbtx
}

func scanTable(row pgx.Row) (*domain.Table, error) {
	var t domain.Table
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.Closed, &t.ClosedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTables(rows pgx.Rows) ([]*domain.Table, error) {
	defer rows.Close()

	tables := make([]*domain.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return tables, nil
}

// GetByID retrieves a table by ID
func (r *postgresTableRepository) GetByID(ctx context.Context, id int64, lock LockMode) (*domain.Table, error) {
	query := `SELECT id, name, created_at, is_closed, closed_at FROM poker_tables WHERE id = $1` + lockClause(lock)

	t, err := scanTable(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return t, nil
}

// ListOpen returns every open table, oldest first
func (r *postgresTableRepository) ListOpen(ctx context.Context) ([]*domain.Table, error) {
	query := `
		SELECT id, name, created_at, is_closed, closed_at
		FROM poker_tables
		WHERE is_closed = false
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tables: %w", err)
	}
	return collectTables(rows)
}

// ListClosedForParticipant returns closed tables joined through participation records
func (r *postgresTableRepository) ListClosedForParticipant(ctx context.Context, participantID int64) ([]*domain.Table, error) {
	query := `
		SELECT t.id, t.name, t.created_at, t.is_closed, t.closed_at
		FROM poker_tables t
		JOIN participations pr ON pr.poker_table_id = t.id
		WHERE pr.participant_id = $1 AND t.is_closed = true
		ORDER BY t.closed_at, t.id
	`

	rows, err := r.q.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list past tables: %w", err)
	}
	return collectTables(rows)
}

// Create inserts a table
func (r *postgresTableRepository) Create(ctx context.Context, t *domain.Table) error {
	query := `
		INSERT INTO poker_tables (name, is_closed)
		VALUES ($1, false)
		RETURNING id, created_at
	`

	if err := r.q.QueryRow(ctx, query, t.Name).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	t.Closed = false
	t.ClosedAt = nil
	return nil
}

// MarkClosed flips an open table to closed
func (r *postgresTableRepository) MarkClosed(ctx context.Context, id int64, closedAt time.Time) (bool, error) {
	query := `
		UPDATE poker_tables
		SET is_closed = true, closed_at = $2
		WHERE id = $1 AND is_closed = false
	`

	tag, err := r.q.Exec(ctx, query, id, closedAt)
	if err != nil {
		return false, fmt.Errorf("failed to close table: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LockCreation takes a transaction-scoped advisory lock
func (r *postgresTableRepository) LockCreation(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tableCreationLockKey); err != nil {
		return fmt.Errorf("failed to lock table creation: %w", err)
	}
	return nil
}
