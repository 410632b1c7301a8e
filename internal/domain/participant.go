package domain

import "time"

// Participant represents one developer/estimator
type Participant struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	SessionID    string    `json:"-"`
	TableID      *int64    `json:"table_id,omitempty"`
	Vote         *int      `json:"vote"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCastVote reports whether the participant holds a vote for the current round
func (p *Participant) HasCastVote() bool {
	return p.Vote != nil
}

// IsVoteMissing reports whether the participant has not voted yet
func (p *Participant) IsVoteMissing() bool {
	return p.Vote == nil
}

// IsBoundTo reports whether the participant is currently bound to tableID
func (p *Participant) IsBoundTo(tableID int64) bool {
	return p.TableID != nil && *p.TableID == tableID
}

// BindTo moves the participant to tableID. Switching tables forfeits the vote.
func (p *Participant) BindTo(tableID int64) {
	if p.IsBoundTo(tableID) {
		return
	}
	id := tableID
	p.TableID = &id
	p.Vote = nil
}

// ClearVote resets the vote to absent
func (p *Participant) ClearVote() {
	p.Vote = nil
}
