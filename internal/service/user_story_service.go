package service

import (
	"context"
	"strings"

	"pokertable/internal/domain"
	"pokertable/internal/repository"
	"pokertable/pkg/errors"

	"go.uber.org/zap"
)

const maxStoryTitleLength = 255

// UserStoryService manages the stories estimated at a table
type UserStoryService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserStoryService(store repository.Store, logger *zap.Logger) *UserStoryService {
	return &UserStoryService{store: store, logger: logger}
}

func validateStory(req domain.UserStoryRequest) (domain.UserStoryRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	details := map[string]interface{}{}
	if req.Title == "" {
		details["title"] = "Title cannot be empty"
	} else if len(req.Title) > maxStoryTitleLength {
		details["title"] = "Title is too long"
	}
	if req.EstimatedPoints != nil && *req.EstimatedPoints < 0 {
		details["estimated_points"] = "Estimated points cannot be negative"
	}
	if len(details) > 0 {
		return req, errors.NewValidationError("Invalid user story", details)
	}
	return req, nil
}

func (s *UserStoryService) requireTable(ctx context.Context, tableID int64) error {
	table, err := s.store.Repositories().Tables.GetByID(ctx, tableID, repository.LockNone)
	if err != nil {
		return wrapInternal(err, "Failed to load table")
	}
	if table == nil {
		return errors.NewNotFoundError("Table not found")
	}
	return nil
}

// Create adds a story to an existing table
func (s *UserStoryService) Create(ctx context.Context, tableID int64, req domain.UserStoryRequest) (*domain.UserStory, error) {
	req, err := validateStory(req)
	if err != nil {
		return nil, err
	}
	if err := s.requireTable(ctx, tableID); err != nil {
		return nil, err
	}

	story := &domain.UserStory{
		TableID:         tableID,
		Title:           req.Title,
		Description:     req.Description,
		EstimatedPoints: req.EstimatedPoints,
	}
	if err := s.store.Repositories().UserStories.Create(ctx, story); err != nil {
		return nil, wrapInternal(err, "Failed to create user story")
	}

	s.logger.Info("User story created", zap.Int64("story_id", story.ID), zap.Int64("table_id", tableID))
	return story, nil
}

// Get loads a story or fails with NotFound
func (s *UserStoryService) Get(ctx context.Context, id int64) (*domain.UserStory, error) {
	story, err := s.store.Repositories().UserStories.GetByID(ctx, id)
	if err != nil {
		return nil, wrapInternal(err, "Failed to load user story")
	}
	if story == nil {
		return nil, errors.NewNotFoundError("User story not found")
	}
	return story, nil
}

// ListByTable returns the stories of an existing table
func (s *UserStoryService) ListByTable(ctx context.Context, tableID int64) ([]*domain.UserStory, error) {
	if err := s.requireTable(ctx, tableID); err != nil {
		return nil, err
	}

	stories, err := s.store.Repositories().UserStories.ListByTable(ctx, tableID)
	if err != nil {
		return nil, wrapInternal(err, "Failed to list user stories")
	}
	return stories, nil
}

// Update replaces title, description and estimated points
func (s *UserStoryService) Update(ctx context.Context, id int64, req domain.UserStoryRequest) (*domain.UserStory, error) {
	req, err := validateStory(req)
	if err != nil {
		return nil, err
	}

	story, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	story.Title = req.Title
	story.Description = req.Description
	story.EstimatedPoints = req.EstimatedPoints
	if err := s.store.Repositories().UserStories.Update(ctx, story); err != nil {
		return nil, wrapInternal(err, "Failed to update user story")
	}
	return story, nil
}

// Delete removes a story
func (s *UserStoryService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.Repositories().UserStories.Delete(ctx, id)
	if err != nil {
		return wrapInternal(err, "Failed to delete user story")
	}
	if !deleted {
		return errors.NewNotFoundError("User story not found")
	}
	return nil
}
