package repository

import (
	"context"
	"fmt"

	"pokertable/internal/domain"

	"github.com/jackc/pgx/v5"
)

type postgresParticipationRepository struct {
	q dbtx
}

// Create inserts a participation record
func (r *postgresParticipationRepository) Create(ctx context.Context, record *domain.ParticipationRecord) error {
	query := `
		INSERT INTO participations (participant_id, poker_table_id, vote)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, record.ParticipantID, record.TableID, record.Vote).
		Scan(&record.ID, &record.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

// ListByParticipant returns a participant's history, oldest first
func (r *postgresParticipationRepository) ListByParticipant(ctx context.Context, participantID int64) ([]*domain.ParticipationRecord, error) {
	query := `
		SELECT id, participant_id, poker_table_id, vote, created_at
		FROM participations
		WHERE participant_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	return collectParticipations(rows)
}

// ListByTable returns the records of one closed table
func (r *postgresParticipationRepository) ListByTable(ctx context.Context, tableID int64) ([]*domain.ParticipationRecord, error) {
	query := `
		SELECT id, participant_id, poker_table_id, vote, created_at
		FROM participations
		WHERE poker_table_id = $1
		ORDER BY participant_id
	`

	rows, err := r.q.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list table participations: %w", err)
	}
	return collectParticipations(rows)
}

func collectParticipations(rows pgx.Rows) ([]*domain.ParticipationRecord, error) {
	defer rows.Close()

	records := make([]*domain.ParticipationRecord, 0)
	for rows.Next() {
		var rec domain.ParticipationRecord
		if err := rows.Scan(&rec.ID, &rec.ParticipantID, &rec.TableID, &rec.Vote, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return records, nil
}
