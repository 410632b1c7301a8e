package domain

import "time"

// ParticipationRecord is the immutable snapshot of one participant's final vote on a closed table
type ParticipationRecord struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant_id"`
	TableID       int64     `json:"table_id"`
	Vote          int       `json:"vote"`
	CreatedAt     time.Time `json:"created_at"`
}
