package domain

// UserStory is an estimation subject attached to a table
type UserStory struct {
	ID              int64  `json:"id"`
	TableID         int64  `json:"table_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	EstimatedPoints *int   `json:"estimated_points"`
}

// UserStoryRequest represents a create or update request for a user story
type UserStoryRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	EstimatedPoints *int   `json:"estimated_points"`
}
