package repository

import (
	"context"
	"errors"
	"fmt"

	"pokertable/internal/domain"

	"github.com/jackc/pgx/v5"
)

type postgresUserStoryRepository struct {
	q dbtx
}

func (r *postgresUserStoryRepository) Create(ctx context.Context, story *domain.UserStory) error {
	query := `
		INSERT INTO user_stories (poker_table_id, title, description, estimated_points)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query, story.TableID, story.Title, story.Description, story.EstimatedPoints).Scan(&story.ID)
	if err != nil {
		return fmt.Errorf("failed to create user story: %w", err)
	}
	return nil
}

func (r *postgresUserStoryRepository) GetByID(ctx context.Context, id int64) (*domain.UserStory, error) {
	var s domain.UserStory
	query := `
		SELECT id, poker_table_id, title, description, estimated_points
		FROM user_stories
		WHERE id = $1
	`

	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.TableID, &s.Title, &s.Description, &s.EstimatedPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user story: %w", err)
	}
	return &s, nil
}

func (r *postgresUserStoryRepository) ListByTable(ctx context.Context, tableID int64) ([]*domain.UserStory, error) {
	query := `
		SELECT id, poker_table_id, title, description, estimated_points
		FROM user_stories
		WHERE poker_table_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user stories: %w", err)
	}
	defer rows.Close()

	stories := make([]*domain.UserStory, 0)
	for rows.Next() {
		var s domain.UserStory
		if err := rows.Scan(&s.ID, &s.TableID, &s.Title, &s.Description, &s.EstimatedPoints); err != nil {
			return nil, fmt.Errorf("failed to scan user story: %w", err)
		}
		stories = append(stories, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user stories: %w", err)
	}
	return stories, nil
}

func (r *postgresUserStoryRepository) Update(ctx context.Context, story *domain.UserStory) error {
	query := `
		UPDATE user_stories
		SET title = $2, description = $3, estimated_points = $4
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, query, story.ID, story.Title, story.Description, story.EstimatedPoints); err != nil {
		return fmt.Errorf("failed to update user story: %w", err)
	}
	return nil
}

func (r *postgresUserStoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM user_stories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user story: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
